package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the envhub API. The raw body is kept
// so callers can recover structured payloads (for example check
// diagnostics).
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("envhub API error: %d %s: %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}
