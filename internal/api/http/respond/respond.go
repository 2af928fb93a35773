package respond

import (
	"encoding/json"
	"net/http"
)

// Response statuses carried in every JSON body.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorBody is the JSON body of a failed request.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSON writes payload with the given HTTP status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes an error body with the given HTTP status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Status: StatusError, Message: message})
}
