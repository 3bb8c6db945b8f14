package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response. Account data changes underneath clients, so
// responses are never cacheable.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 with the new resource's location
func Created(w http.ResponseWriter, location string, data any) {
	w.Header().Set("Location", location)
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
