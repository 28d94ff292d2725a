package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pviana/agenda/server/models"
	"github.com/pviana/agenda/server/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) *mux.Router {
	repo, err := models.InitializeTestDb()
	require.NoError(t, err)

	contactRepo = repo
	weatherAPI = weather.WeatherAPIStub{
		CurrentWeather: &weather.Weather{
			City:        "Sao Paulo",
			Temperature: 25,
			Condition:   "clear_day",
			Description: "Ensolarado",
		},
	}
	serverStartTime = time.Now()

	return newRouter()
}

func doRequest(router *mux.Router, method, target, body string) (*httptest.ResponseRecorder, ResponsePayload) {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	payload := ResponsePayload{}
	json.Unmarshal(recorder.Body.Bytes(), &payload)

	return recorder, payload
}

func createTestContact(t *testing.T, router *mux.Router, name, email string) uint {
	body := fmt.Sprintf(
		`{"name":%q,"address":"Rua das Flores, 123, Sao Paulo, SP","email":%q,"phones":["11999999999"]}`,
		name, email,
	)

	recorder, payload := doRequest(router, "POST", "/api/contacts", body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	data := payload.Data.(map[string]interface{})
	return uint(data["id"].(float64))
}

func TestCreateContactRequest(t *testing.T) {
	router := setupTestServer(t)

	body := `{
		"name": "Joao Silva",
		"address": "Rua das Flores, 123, Sao Paulo, SP",
		"email": "joao@example.com",
		"phones": ["11999999999", "1133333333"]
	}`
	recorder, payload := doRequest(router, "POST", "/api/contacts", body)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.True(t, payload.Success)

	data := payload.Data.(map[string]interface{})
	assert.Equal(t, "Joao Silva", data["name"])
	assert.Equal(t, "joao@example.com", data["email"])
	assert.Len(t, data["phones"], 2)
}

func TestCreateContactRequestValidation(t *testing.T) {
	router := setupTestServer(t)

	tests := []struct {
		description string
		body        string
	}{
		{"invalid JSON", `{"name": `},
		{"missing email", `{"name":"Joao","address":"Rua A, 1, Recife, PE","phones":["81911111111"]}`},
		{"bad email", `{"name":"Joao","address":"Rua A, 1, Recife, PE","email":"nope","phones":["81911111111"]}`},
		{"no phones", `{"name":"Joao","address":"Rua A, 1, Recife, PE","email":"j@x.com","phones":[]}`},
		{"bad phone chars", `{"name":"Joao","address":"Rua A, 1, Recife, PE","email":"j@x.com","phones":["not-a-phone!"]}`},
		{"repeated phones", `{"name":"Joao","address":"Rua A, 1, Recife, PE","email":"j@x.com","phones":["81911111111","81911111111"]}`},
		{"too many phones", `{"name":"Joao","address":"Rua A, 1, Recife, PE","email":"j@x.com",
			"phones":["81911111111","81911111112","81911111113","81911111114","81911111115","81911111116"]}`},
		{"short name", `{"name":"J","address":"Rua A, 1, Recife, PE","email":"j@x.com","phones":["81911111111"]}`},
	}

	for _, tt := range tests {
		recorder, payload := doRequest(router, "POST", "/api/contacts", tt.body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code, tt.description)
		assert.False(t, payload.Success, tt.description)
		assert.NotEmpty(t, payload.Errors, tt.description)
	}
}

func TestCreateContactRequestDuplicateEmail(t *testing.T) {
	router := setupTestServer(t)

	createTestContact(t, router, "Ana", "ana@example.com")

	body := `{"name":"Outra Ana","address":"Rua B, 2, Olinda, PE","email":"ana@example.com","phones":["81922222222"]}`
	recorder, payload := doRequest(router, "POST", "/api/contacts", body)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.False(t, payload.Success)
}

func TestListContactsRequest(t *testing.T) {
	router := setupTestServer(t)

	createTestContact(t, router, "Ana", "ana@example.com")
	createTestContact(t, router, "Bruno", "bruno@example.com")
	createTestContact(t, router, "Briana", "briana@example.com")

	recorder, payload := doRequest(router, "GET", "/api/contacts", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, payload.Pagination)

	contacts := payload.Data.([]interface{})
	assert.Len(t, contacts, 3)
	assert.Equal(t, int64(3), payload.Pagination.Total)
	assert.Equal(t, "Ana", contacts[0].(map[string]interface{})["name"])

	// name filter
	recorder, payload = doRequest(router, "GET", "/api/contacts?name=br", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	contacts = payload.Data.([]interface{})
	require.Len(t, contacts, 2)
	assert.Equal(t, "Briana", contacts[0].(map[string]interface{})["name"])
	assert.Equal(t, "Bruno", contacts[1].(map[string]interface{})["name"])

	// pagination
	recorder, payload = doRequest(router, "GET", "/api/contacts?page=2&limit=2", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	contacts = payload.Data.([]interface{})
	assert.Len(t, contacts, 1)
	assert.Equal(t, int64(2), payload.Pagination.Pages)
}

func TestFindContactRequest(t *testing.T) {
	router := setupTestServer(t)

	id := createTestContact(t, router, "Joao Silva", "joao@example.com")

	recorder, payload := doRequest(router, "GET", fmt.Sprintf("/api/contacts/%v", id), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, payload.Success)

	data := payload.Data.(map[string]interface{})
	assert.Equal(t, "Joao Silva", data["name"])

	// 25C & sunny from the stubbed reading
	weatherBlock := data["weather"].(map[string]interface{})
	assert.Equal(t, weather.MILD_SUNNY_WEATHER, weatherBlock["status"])
	assert.Equal(t, "Sao Paulo", weatherBlock["city"])
	assert.Equal(t, true, weatherBlock["available"])
	assert.NotEmpty(t, weatherBlock["suggestion"])
}

func TestFindContactRequestWeatherUnavailable(t *testing.T) {
	router := setupTestServer(t)
	weatherAPI = weather.WeatherAPIStub{CurrentWeatherError: fmt.Errorf("connection refused")}

	id := createTestContact(t, router, "Joao Silva", "joao@example.com")

	recorder, payload := doRequest(router, "GET", fmt.Sprintf("/api/contacts/%v", id), "")
	require.Equal(t, http.StatusOK, recorder.Code, "a failed weather lookup never fails the read")

	data := payload.Data.(map[string]interface{})
	weatherBlock := data["weather"].(map[string]interface{})
	assert.Equal(t, weather.UNAVAILABLE_WEATHER, weatherBlock["status"])
	assert.Equal(t, false, weatherBlock["available"])
	assert.Equal(t, "Sao Paulo", weatherBlock["city"], "city still parsed from the contact's address")
}

func TestFindContactRequestNotFound(t *testing.T) {
	router := setupTestServer(t)

	recorder, payload := doRequest(router, "GET", "/api/contacts/42", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.False(t, payload.Success)
}

func TestUpdateContactRequest(t *testing.T) {
	router := setupTestServer(t)

	id := createTestContact(t, router, "Joana", "joana@example.com")

	body := `{"name":"Joana Prado","phones":["41911111111","41922222222"]}`
	recorder, payload := doRequest(router, "PUT", fmt.Sprintf("/api/contacts/%v", id), body)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	data := payload.Data.(map[string]interface{})
	assert.Equal(t, "Joana Prado", data["name"])
	assert.Equal(t, "joana@example.com", data["email"])
	assert.Len(t, data["phones"], 2)
}

func TestUpdateContactRequestRejectsBadPayloads(t *testing.T) {
	router := setupTestServer(t)

	id := createTestContact(t, router, "Joana", "joana@example.com")
	target := fmt.Sprintf("/api/contacts/%v", id)

	tests := []struct {
		description string
		body        string
	}{
		{"unknown fields only", `{"nickname":"jo"}`},
		{"empty payload", `{}`},
		{"bad email", `{"email":"nope"}`},
		{"non-string name", `{"name":42}`},
		{"phones not an array", `{"phones":"81911111111"}`},
		{"empty phone list", `{"phones":[]}`},
	}

	for _, tt := range tests {
		recorder, _ := doRequest(router, "PUT", target, tt.body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, tt.description)
	}
}

func TestUpdateContactRequestConflictAndNotFound(t *testing.T) {
	router := setupTestServer(t)

	createTestContact(t, router, "Alice", "alice@example.com")
	otherID := createTestContact(t, router, "Beto", "beto@example.com")

	recorder, _ := doRequest(router, "PUT", fmt.Sprintf("/api/contacts/%v", otherID),
		`{"email":"alice@example.com"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// A contact may keep its own email
	recorder, _ = doRequest(router, "PUT", fmt.Sprintf("/api/contacts/%v", otherID),
		`{"email":"beto@example.com","name":"Beto Souza"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = doRequest(router, "PUT", "/api/contacts/999", `{"name":"Ninguem"}`)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteContactRequest(t *testing.T) {
	router := setupTestServer(t)

	id := createTestContact(t, router, "Carla", "carla@example.com")
	target := fmt.Sprintf("/api/contacts/%v", id)

	recorder, payload := doRequest(router, "DELETE", target, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, payload.Success)

	recorder, _ = doRequest(router, "GET", target, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// Deleting twice is an error, not a no-op
	recorder, _ = doRequest(router, "DELETE", target, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHealthCheckRequest(t *testing.T) {
	router := setupTestServer(t)

	request := httptest.NewRequest("GET", "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
}
