package weather

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityFromAddress(t *testing.T) {
	tests := []struct {
		address string
		city    string
	}{
		{"Rua das Flores, 123, Sao Paulo, SP", "Sao Paulo"},
		{"Av. Boa Viagem, 100, Recife, PE", "Recife"},
		{"Praca Central, Curitiba, PR", "Curitiba"},
		{"Centro, Olinda", "Olinda"},
		{"Brasilia", "Brasilia"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.city, CityFromAddress(tt.address), "address: %q", tt.address)
	}
}

func TestSuggestionFor(t *testing.T) {
	tests := []struct {
		temperature int
		description string
		status      string
	}{
		{10, "Tempo nublado", COLD_WEATHER},
		{18, "Sol", COLD_WEATHER},
		{32, "Sol com poucas nuvens", HOT_SUNNY_WEATHER},
		{30, "Clear sky", HOT_SUNNY_WEATHER},
		{31, "Chuvas esparsas", HOT_RAINY_WEATHER},
		{35, "Light rain", HOT_RAINY_WEATHER},
		{25, "Ensolarado", MILD_SUNNY_WEATHER},
		{22, "Tempo limpo", MILD_SUNNY_WEATHER},
		{20, "Chuvisco", MILD_RAINY_WEATHER},
		{24, "Drizzle", MILD_RAINY_WEATHER},
		{25, "Tempo nublado", NORMAL_WEATHER},
		{19, "Neblina", NORMAL_WEATHER},
	}

	for _, tt := range tests {
		suggestion := SuggestionFor(&Weather{
			City:        "Recife",
			Temperature: tt.temperature,
			Description: tt.description,
		})

		assert.Equal(t, tt.status, suggestion.Status, "%v / %q", tt.temperature, tt.description)
		assert.True(t, suggestion.Available)
		assert.NotEmpty(t, suggestion.Suggestion)
		assert.Equal(t, "Recife", suggestion.City)
		assert.Equal(t, tt.description, suggestion.Condition)
		assert.False(t, suggestion.LastUpdated.IsZero())
	}
}

func TestSuggestionForConditionSlugFallback(t *testing.T) {
	// Free-tier responses may carry only the condition slug
	suggestion := SuggestionFor(&Weather{City: "Natal", Temperature: 31, Condition: "clear_day"})

	assert.Equal(t, HOT_SUNNY_WEATHER, suggestion.Status)
	assert.Equal(t, "clear_day", suggestion.Condition)
}

func TestUnavailable(t *testing.T) {
	suggestion := Unavailable("Sao Paulo", "weather request failed: timeout")

	assert.Equal(t, UNAVAILABLE_WEATHER, suggestion.Status)
	assert.False(t, suggestion.Available)
	assert.Equal(t, "Sao Paulo", suggestion.City)
	assert.Equal(t, "weather request failed: timeout", suggestion.Error)
	assert.NotEmpty(t, suggestion.Suggestion)
}

func TestHGBrasilAPICurrentByCity(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json-cors", r.URL.Query().Get("format"))
		assert.Equal(t, "Recife", r.URL.Query().Get("city_name"))
		assert.Equal(t, "secret-key", r.URL.Query().Get("key"))

		fmt.Fprint(w, `{"results":{"city":"Recife","temp":31,"condition_slug":"clear_day","description":"Ensolarado"}}`)
	}))
	defer testServer.Close()

	api := NewHGBrasilAPI(testServer.URL, "secret-key")

	weather, err := api.CurrentByCity("Recife")
	require.NoError(t, err)

	assert.Equal(t, "Recife", weather.City)
	assert.Equal(t, 31, weather.Temperature)
	assert.Equal(t, "clear_day", weather.Condition)
	assert.Equal(t, "Ensolarado", weather.Description)
}

func TestHGBrasilAPIMissingResults(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":"over quota"}`)
	}))
	defer testServer.Close()

	api := NewHGBrasilAPI(testServer.URL, "")

	_, err := api.CurrentByCity("Recife")
	assert.Error(t, err)
}

func TestHGBrasilAPIErrorStatus(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer testServer.Close()

	api := NewHGBrasilAPI(testServer.URL, "")

	_, err := api.CurrentByCity("Recife")
	assert.Error(t, err)
}
