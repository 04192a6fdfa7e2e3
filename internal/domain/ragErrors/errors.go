// Package ragErrors holds the error taxonomy shared by the ingestion job and the chat API.
//
// ConfigurationError is fatal at startup, ValidationError is raised before any network
// call, RemoteServiceError wraps every failing downstream call and ErrPipelineNotReady
// is returned to callers that arrive before the query pipeline is constructed.
package ragErrors

import (
	"errors"
	"fmt"
)

var ErrPipelineNotReady = errors.New("rag pipeline not initialized, the server may still be starting up")

type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func NewConfigurationError(field string, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field string, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RemoteServiceError reports a failed call to the embedding server, the generation
// server or the vector store. Err keeps the transport level cause.
type RemoteServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *RemoteServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Service, e.Operation)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Operation, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

func NewRemoteServiceError(service string, operation string, err error) *RemoteServiceError {
	return &RemoteServiceError{Service: service, Operation: operation, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}

func IsRemote(err error) bool {
	var r *RemoteServiceError
	return errors.As(err, &r)
}
