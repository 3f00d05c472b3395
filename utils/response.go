package utils

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteRejection writes a failed eligibility/validation response with a
// machine-readable reason code in data, plus any extra fields (deficit,
// retry_after) the caller supplies.
func WriteRejection(w http.ResponseWriter, status int, message, reason string, extra map[string]interface{}) {
	data := map[string]interface{}{"reason": reason}
	for k, v := range extra {
		data[k] = v
	}
	WriteJSON(w, status, APIResponse{Success: false, Message: message, Data: data})
}

// GetStringValue returns the value of a nullable string pointer or empty string if nil
func GetStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
