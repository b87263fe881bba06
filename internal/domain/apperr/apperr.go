// Package apperr defines the closed set of error variants the service
// surfaces to its transport boundary. Each variant carries structured
// fields; mapping to HTTP status codes happens only in the handler layer.
package apperr

import "fmt"

// ValidationError indicates invalid caller input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

// NotFoundError indicates a specific lookup yielded zero results. Terminal.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// ExternalServiceError indicates an upstream transport or auth failure.
// Not retried by the core; a calling layer may retry.
type ExternalServiceError struct {
	Service   string
	Operation string
	Cause     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s: %s: %v", e.Service, e.Operation, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a persistence operation failed entirely.
// A partially successful batch upsert is not escalated to a StoreError.
type StoreError struct {
	Operation string
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
