/*
errors.go - Error taxonomy for the costing engine

ERROR CATEGORIES:
  1. Invalid parameter - mathematically undefined input (margin of 100%).
     Fatal for that one calculation.
  2. Validation - malformed records caught upstream, before the engine.
  3. Selection - no labor rate available to price labor.

  Unresolvable material references and zero monthly production are NOT
  errors: the engine defines them as zero contributions.

USAGE:
  if errors.Is(err, costing.ErrInvalidParameter) {
      // surface as a validation failure to the user
  }
*/
package costing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidParameter is returned when a calculation parameter makes the
	// result mathematically undefined.
	ErrInvalidParameter = errors.New("invalid calculation parameter")

	// ErrValidation is returned when a record fails upstream validation.
	ErrValidation = errors.New("validation failed")

	// ErrNoLaborRate is returned when no labor rate can be selected.
	ErrNoLaborRate = errors.New("no labor rate configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidParameterError names the parameter that made the calculation undefined.
type InvalidParameterError struct {
	Param  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %s: %s", e.Param, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// ValidationError describes a record field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNoLaborRate)
}
