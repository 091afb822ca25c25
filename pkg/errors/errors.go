package errors

import (
	"context"
	"errors"
	"fmt"
)

// AnalysisError carries a stable machine-readable code alongside the scenario
// and file it concerns. Diagnostic lines in the runner are keyed off Code, so
// codes are part of the observable contract.
type AnalysisError struct {
	Code     string
	Message  string
	Cause    error
	Scenario string
	Path     string
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

const (
	ErrCodeNoAggregatedRows   = "NO_AGGREGATED_ROWS"
	ErrCodeNoSteadyState      = "NO_STEADY_STATE"
	ErrCodeReadError          = "READ_ERROR"
	ErrCodeNoValidRepetitions = "NO_VALID_REPETITIONS"
	ErrCodeNoResults          = "NO_RESULTS"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
)

func ErrNoAggregatedRows(path string) *AnalysisError {
	return &AnalysisError{
		Code:    ErrCodeNoAggregatedRows,
		Message: "no aggregated rows",
		Path:    path,
	}
}

func ErrNoSteadyState(path string) *AnalysisError {
	return &AnalysisError{
		Code:    ErrCodeNoSteadyState,
		Message: "no data after warmup",
		Path:    path,
	}
}

func ErrRead(path string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    ErrCodeReadError,
		Message: "read error",
		Cause:   cause,
		Path:    path,
	}
}

func ErrNoValidRepetitions(scenario string) *AnalysisError {
	return &AnalysisError{
		Code:     ErrCodeNoValidRepetitions,
		Message:  "no valid repetitions",
		Scenario: scenario,
	}
}

func ErrNoResults() *AnalysisError {
	return &AnalysisError{
		Code:    ErrCodeNoResults,
		Message: "no scenario produced any result",
	}
}

func ErrInvalidConfig(msg string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    ErrCodeInvalidConfig,
		Message: msg,
		Cause:   cause,
	}
}

// HasCode reports whether err is an AnalysisError with the given code.
func HasCode(err error, code string) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == code
}

func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
