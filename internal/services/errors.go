// Package services derives the dashboard views and forecasts that the HTTP
// handlers expose.
package services

import "errors"

// Error codes reported to API clients
const (
	CodeInvalidMetric      = "INVALID_METRIC"
	CodeInvalidRange       = "INVALID_RANGE"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodePredictionFailed   = "PREDICTION_FAILED"
	CodePredictionDisabled = "PREDICTION_DISABLED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Code: code, Message: message, Details: details}
}

// CodeOf returns the code of the ServiceError in err's chain, or "" if there is none
func CodeOf(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ""
}
