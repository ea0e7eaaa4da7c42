// Package services holds application services that sit between the web
// layer and the engine: blueprint generation and its error taxonomy.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed caller input. Maps to 400.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

func NewValidationError(message string, details ...string) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

// IsValidation checks if an error is a ValidationError.
func IsValidation(err error) bool {
	var validation *ValidationError

	return errors.As(err, &validation)
}

// AuthenticationError reports missing or rejected credentials. Maps to
// 401.
type AuthenticationError struct {
	Realm   string
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %s", e.Realm, e.Message)
}

// IsAuthentication checks if an error is an AuthenticationError.
func IsAuthentication(err error) bool {
	var authentication *AuthenticationError

	return errors.As(err, &authentication)
}
