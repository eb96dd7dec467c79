package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a failed response is kept for messages
const maxErrorBody = 4096

// APIError is returned for every non-2xx response
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s failed (status %d)", e.Method, e.Path, e.StatusCode)
}

// Message extracts the server's explanation from an {"error": ...} or
// {"detail": ...} body, falling back to the raw body.
func (e *APIError) Message() string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return e.Body
}

// IsStatus reports whether err is an *APIError with the given status code
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}
