package prediction

import "fmt"

// InsufficientDataError is returned when the series is shorter than the model's lag count.
// The transport is never called in that case.
type InsufficientDataError struct {
	Required int
	Have     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d samples, have %d", e.Required, e.Have)
}

// PredictionFailedError covers transport failures, non-2xx statuses and malformed responses
type PredictionFailedError struct {
	Cause string
	Err   error
}

func (e *PredictionFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction failed: %s: %v", e.Cause, e.Err)
	}
	return "prediction failed: " + e.Cause
}

func (e *PredictionFailedError) Unwrap() error {
	return e.Err
}

func failed(cause string, err error) *PredictionFailedError {
	return &PredictionFailedError{Cause: cause, Err: err}
}
