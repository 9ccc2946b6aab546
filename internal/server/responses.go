package server

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope for every JSON endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes data with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 envelope around data.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// WriteError writes a failed envelope. err may be nil.
func WriteError(w http.ResponseWriter, statusCode int, message string, err error) error {
	resp := APIResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	return WriteJSON(w, statusCode, resp)
}
