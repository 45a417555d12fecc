package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"linear-board-sync/models"
)

var (
	// ErrConfiguration is returned when the Linear API key is not configured
	ErrConfiguration = errors.New("LINEAR_API_KEY is not configured")

	// ErrStatusNotFound is returned when a workflow state name does not resolve
	ErrStatusNotFound = errors.New("workflow state not found")
)

// ValidationError reports a required field missing from an inbound request
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// DependencyUnavailableError reports a transport failure talking to Linear:
// a network error, a non-2xx response, or a body that could not be understood
type DependencyUnavailableError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *DependencyUnavailableError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("linear %s failed: status_code=%d: %v", e.Operation, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("linear %s failed: %v", e.Operation, e.Err)
	default:
		return fmt.Sprintf("linear %s failed: status_code=%d, body=%s", e.Operation, e.StatusCode, e.Body)
	}
}

func (e *DependencyUnavailableError) Unwrap() error {
	return e.Err
}

// DependencyRejectedError reports application-level errors returned by Linear
// in a structurally valid GraphQL response
type DependencyRejectedError struct {
	Operation string
	Errors    []models.GraphQLError
}

func (e *DependencyRejectedError) Error() string {
	payload, err := json.Marshal(e.Errors)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", e.Errors))
	}
	return fmt.Sprintf("linear %s rejected: %s", e.Operation, payload)
}

// statusForError maps an error from the forwarding path to its HTTP status code
func statusForError(err error) int {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrStatusNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
