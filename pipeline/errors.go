package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"medpredict/ml"
)

// UnknownConditionError indicates the requested condition is not supported.
type UnknownConditionError struct {
	Name string
}

func (e *UnknownConditionError) Error() string {
	return fmt.Sprintf("Unknown condition: %s", e.Name)
}

func (e *UnknownConditionError) Unwrap() error {
	return ml.ErrUnknownCondition
}

// ModelUnavailableError indicates the condition's artifacts could not be loaded.
type ModelUnavailableError struct {
	Condition ml.Condition
	Err       error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("Models for %s are not available on the server.", e.Condition.Title())
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// MissingFeatureError indicates a required field is absent or null.
type MissingFeatureError struct {
	Field string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("Missing feature: %s", e.Field)
}

// InvalidFeatureValueError indicates a field could not be read as a finite number.
type InvalidFeatureValueError struct {
	Field string
	Value any
}

func (e *InvalidFeatureValueError) Error() string {
	return fmt.Sprintf("Invalid value for feature %s. Expected a number.", e.Field)
}

// MalformedRequestBodyError indicates the body is not a JSON object.
type MalformedRequestBodyError struct {
	Err error
}

func (e *MalformedRequestBodyError) Error() string {
	return fmt.Sprintf("Malformed request body: %v", e.Err)
}

func (e *MalformedRequestBodyError) Unwrap() error {
	return e.Err
}

// InternalErrorMessage is the only detail exposed for unexpected failures.
const InternalErrorMessage = "An internal server error occurred"

// HTTPStatus returns the status code the router uses for err.
func HTTPStatus(err error) int {
	var (
		unknown   *UnknownConditionError
		missing   *MissingFeatureError
		invalid   *InvalidFeatureValueError
		malformed *MalformedRequestBodyError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &malformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to callers.
func PublicMessage(err error) string {
	var (
		unknown     *UnknownConditionError
		unavailable *ModelUnavailableError
		missing     *MissingFeatureError
		invalid     *InvalidFeatureValueError
		malformed   *MalformedRequestBodyError
	)
	switch {
	case errors.As(err, &unknown):
		return unknown.Error()
	case errors.As(err, &unavailable):
		return unavailable.Error()
	case errors.As(err, &missing):
		return missing.Error()
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.As(err, &malformed):
		return malformed.Error()
	default:
		return InternalErrorMessage
	}
}

// Outcome is a short label for err used in metrics and logs.
func Outcome(err error) string {
	var (
		unknown     *UnknownConditionError
		unavailable *ModelUnavailableError
		missing     *MissingFeatureError
		invalid     *InvalidFeatureValueError
		malformed   *MalformedRequestBodyError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &unknown):
		return "unknown_condition"
	case errors.As(err, &unavailable):
		return "model_unavailable"
	case errors.As(err, &missing):
		return "missing_feature"
	case errors.As(err, &invalid):
		return "invalid_feature_value"
	case errors.As(err, &malformed):
		return "malformed_body"
	default:
		return "internal_error"
	}
}
