package planapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx answer from the plan API. Body keeps the raw payload
// so handlers can surface the remote message verbatim.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plan api: %s: %s", e.Status, trim(e.Body, 256))
}

// Message extracts the remote error payload's message field. Empty when the
// payload carries none; callers fall back to their own wording.
func (e *APIError) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
