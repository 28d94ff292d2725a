package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pviana/agenda/server/models"
	"github.com/pviana/agenda/server/weather"
)

type ResponsePayload struct {
	Errors     []string       `json:"errors,omitempty"`
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Data       interface{}    `json:"data,omitempty"`
	Pagination *models.Paging `json:"pagination,omitempty"`
}

type ContactPayload struct {
	Name    string   `json:"name" validate:"required,min=2,max=100"`
	Address string   `json:"address" validate:"required,min=5,max=200"`
	Email   string   `json:"email" validate:"required,email"`
	Phones  []string `json:"phones" validate:"required,min=1,max=5,unique,dive,phone_number"`
}

func createContact(rw http.ResponseWriter, r *http.Request) {
	payload := ContactPayload{}

	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON payload"}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(payload)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	emailExists, err := contactRepo.EmailExists(payload.Email, 0)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}
	if emailExists {
		writeResponse(rw, ResponsePayload{Errors: []string{models.ErrEmailExists.Error()}}, http.StatusConflict)
		return
	}

	contact, err := contactRepo.Create(payload.Name, payload.Address, payload.Email, payload.Phones)
	if errors.Is(err, models.ErrEmailExists) || errors.Is(err, models.ErrDuplicatePhone) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Message: "contact created", Data: contact}, http.StatusCreated)
}

func listContacts(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.Filter{
		Name:    query.Get("name"),
		Address: query.Get("address"),
		Email:   query.Get("email"),
		Phone:   query.Get("phone"),
	}

	contacts, paging, err := contactRepo.FindAll(filter, intQueryParam(query, "page"), intQueryParam(query, "limit"))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{
		Success:    true,
		Message:    "contacts listed",
		Data:       contacts,
		Pagination: paging,
	}, http.StatusOK)
}

func findContact(rw http.ResponseWriter, r *http.Request) {
	id, err := contactIDFromRequest(r)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid contact id"}}, http.StatusBadRequest)
		return
	}

	contact, err := contactRepo.FindById(id)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}
	if contact == nil {
		writeResponse(rw, ResponsePayload{Errors: []string{models.ErrContactNotFound.Error()}}, http.StatusNotFound)
		return
	}

	city := weather.CityFromAddress(contact.Address)

	var suggestion weather.Suggestion
	reading, err := weatherAPI.CurrentByCity(city)
	if err != nil {
		logg.Warnf("weather lookup for %q failed: %v", city, err)
		suggestion = weather.Unavailable(city, "weather service is unavailable at the moment")
	} else {
		suggestion = weather.SuggestionFor(reading)
	}

	data := struct {
		*models.Contact
		Weather weather.Suggestion `json:"weather"`
	}{contact, suggestion}

	writeResponse(rw, ResponsePayload{Success: true, Message: "contact found", Data: data}, http.StatusOK)
}

func updateContact(rw http.ResponseWriter, r *http.Request) {
	id, err := contactIDFromRequest(r)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid contact id"}}, http.StatusBadRequest)
		return
	}

	data := make(map[string]interface{})
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON payload"}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, map[string]bool{"name": true, "address": true, "email": true, "phones": true})
	if len(data) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"at least one valid field is required"}}, http.StatusBadRequest)
		return
	}

	var phoneNumbers []string
	if rawPhones, ok := data["phones"]; ok {
		phoneNumbers, err = phoneListFromPayload(rawPhones)
		if err != nil {
			writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
			return
		}
		delete(data, "phones")
	}

	if errs := validateUpdateFields(data); len(errs) > 0 {
		writeResponse(rw, ResponsePayload{Errors: errs}, http.StatusBadRequest)
		return
	}

	if email, ok := data["email"].(string); ok {
		emailExists, err := contactRepo.EmailExists(email, id)
		if err != nil {
			writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
			return
		}
		if emailExists {
			writeResponse(rw, ResponsePayload{Errors: []string{models.ErrEmailExists.Error()}}, http.StatusConflict)
			return
		}
	}

	contact, err := contactRepo.Update(id, data, phoneNumbers)
	if errors.Is(err, models.ErrContactNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}
	if errors.Is(err, models.ErrEmailExists) || errors.Is(err, models.ErrDuplicatePhone) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Message: "contact updated", Data: contact}, http.StatusOK)
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	id, err := contactIDFromRequest(r)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid contact id"}}, http.StatusBadRequest)
		return
	}

	err = contactRepo.Delete(id)
	if errors.Is(err, models.ErrContactNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Message: "contact deleted"}, http.StatusOK)
}

func healthCheck(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(serverStartTime).String(),
	})
}
