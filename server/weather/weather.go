package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DEFAULT_BASE_URL = "https://api.hgbrasil.com/weather"
	REQUEST_TIMEOUT  = 5 * time.Second

	COLD_WEATHER        = "cold"
	HOT_SUNNY_WEATHER   = "hot_sunny"
	HOT_RAINY_WEATHER   = "hot_rainy"
	MILD_SUNNY_WEATHER  = "mild_sunny"
	MILD_RAINY_WEATHER  = "mild_rainy"
	NORMAL_WEATHER      = "normal"
	UNAVAILABLE_WEATHER = "unavailable"
)

type WeatherAPIInterface interface {
	// CurrentByCity returns the current weather reading for the given city
	CurrentByCity(city string) (*Weather, error)
}

type Weather struct {
	City        string
	Temperature int
	Condition   string
	Description string
}

// Suggestion is the weather block attached to a single-contact read. It is
// best effort - when the lookup fails, Available is false & Error says why.
type Suggestion struct {
	City        string    `json:"city,omitempty"`
	Temperature int       `json:"temperature"`
	Condition   string    `json:"condition,omitempty"`
	Suggestion  string    `json:"suggestion"`
	Status      string    `json:"status"`
	Available   bool      `json:"available"`
	Error       string    `json:"error,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

type HGBrasilAPI struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewHGBrasilAPI returns a client for the HG Brasil weather API. The key is
// optional - without one the API falls back to its free sample responses.
func NewHGBrasilAPI(baseURL, key string) *HGBrasilAPI {
	if baseURL == "" {
		baseURL = DEFAULT_BASE_URL
	}

	return &HGBrasilAPI{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: REQUEST_TIMEOUT},
	}
}

func (api *HGBrasilAPI) CurrentByCity(city string) (*Weather, error) {
	params := url.Values{}
	params.Set("format", "json-cors")
	params.Set("city_name", city)
	if api.key != "" {
		params.Set("key", api.key)
	}

	resp, err := api.client.Get(fmt.Sprintf("%v?%v", api.baseURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather service returned status %v", resp.StatusCode)
	}

	payload := struct {
		Results *struct {
			City          string `json:"city"`
			Temp          int    `json:"temp"`
			ConditionSlug string `json:"condition_slug"`
			Description   string `json:"description"`
		} `json:"results"`
	}{}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid weather service response: %v", err)
	}

	if payload.Results == nil {
		return nil, fmt.Errorf("invalid weather service response: missing results")
	}

	weather := &Weather{
		City:        payload.Results.City,
		Temperature: payload.Results.Temp,
		Condition:   payload.Results.ConditionSlug,
		Description: payload.Results.Description,
	}
	if weather.City == "" {
		weather.City = city
	}

	return weather, nil
}

// CityFromAddress pulls the city out of a 'street, number, city, region'
// address. With fewer segments, the last-but-one(or only) segment wins.
func CityFromAddress(address string) string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 3:
		return parts[len(parts)-2]
	case len(parts) == 2:
		return parts[1]
	default:
		return parts[0]
	}
}

// SuggestionFor applies the temperature & condition rules to a reading.
// Condition keywords cover both portuguese & english, since HG Brasil
// localizes its descriptions.
func SuggestionFor(weather *Weather) Suggestion {
	condition := strings.ToLower(weather.Condition + " " + weather.Description)
	rainy := containsAny(condition, "chuva", "chuvisco", "rain", "drizzle")
	sunny := containsAny(condition, "sol", "limpo", "clear", "sunny")

	var text, status string
	switch {
	case weather.Temperature <= 18:
		text = "Offer your contact a hot chocolate on this cold day!"
		status = COLD_WEATHER
	case weather.Temperature >= 30 && sunny:
		text = "Invite your contact to the beach in this heat!"
		status = HOT_SUNNY_WEATHER
	case weather.Temperature >= 30 && rainy:
		text = "Invite your contact out for some ice cream"
		status = HOT_RAINY_WEATHER
	case sunny:
		text = "Invite your contact to do something outdoors"
		status = MILD_SUNNY_WEATHER
	case rainy:
		text = "Invite your contact to watch a movie"
		status = MILD_RAINY_WEATHER
	default:
		text = "How about reaching out and seeing how their day is going?"
		status = NORMAL_WEATHER
	}

	conditionLabel := weather.Description
	if conditionLabel == "" {
		conditionLabel = weather.Condition
	}

	return Suggestion{
		City:        weather.City,
		Temperature: weather.Temperature,
		Condition:   conditionLabel,
		Suggestion:  text,
		Status:      status,
		Available:   true,
		LastUpdated: time.Now().UTC(),
	}
}

// Unavailable builds the fallback suggestion used when the weather lookup
// fails. A failed lookup never fails the contact read itself.
func Unavailable(city string, errMsg string) Suggestion {
	return Suggestion{
		City:        city,
		Suggestion:  "Weather information is unavailable right now. Reach out anyway!",
		Status:      UNAVAILABLE_WEATHER,
		Available:   false,
		Error:       errMsg,
		LastUpdated: time.Now().UTC(),
	}
}

func containsAny(value string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}

	return false
}
