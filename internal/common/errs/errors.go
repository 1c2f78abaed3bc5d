package errs

import (
	"errors"
	"fmt"
)

type ValidationCode string

const (
	CodeInvalidField      ValidationCode = "invalid_field"
	CodeInvalidOperator   ValidationCode = "invalid_operator"
	CodeMissingValue      ValidationCode = "missing_value"
	CodeInvalidValue      ValidationCode = "invalid_value"
	CodeUnknownReportType ValidationCode = "unknown_report_type"
	CodeTooManyColumns    ValidationCode = "too_many_columns"
	CodeNoColumns         ValidationCode = "no_columns"
	CodeInvalidFormat     ValidationCode = "invalid_format"
)

// ValidationError is raised before any data access and is never retried.
type ValidationError struct {
	Code  ValidationCode
	Field string
	Value string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Code {
	case CodeInvalidField:
		return fmt.Sprintf("invalid filter field: %q", e.Field)
	case CodeInvalidOperator:
		return fmt.Sprintf("invalid filter operator: %q", e.Value)
	case CodeMissingValue:
		return fmt.Sprintf("filter on %q requires a value", e.Field)
	case CodeInvalidValue:
		return fmt.Sprintf("invalid value for filter on %q", e.Field)
	case CodeUnknownReportType:
		return fmt.Sprintf("unknown report type: %q", e.Value)
	case CodeTooManyColumns:
		return fmt.Sprintf("too many columns: %s", e.Value)
	case CodeNoColumns:
		return "report must define at least one column"
	}
	return "validation error"
}

func InvalidField(field string) ValidationError {
	return ValidationError{Code: CodeInvalidField, Field: field}
}

func InvalidOperator(field, op string) ValidationError {
	return ValidationError{Code: CodeInvalidOperator, Field: field, Value: op}
}

func MissingValue(field string) ValidationError {
	return ValidationError{Code: CodeMissingValue, Field: field}
}

func InvalidValue(field, msg string) ValidationError {
	return ValidationError{Code: CodeInvalidValue, Field: field, Msg: msg}
}

func UnknownReportType(reportType string) ValidationError {
	return ValidationError{Code: CodeUnknownReportType, Value: reportType}
}

// TooManyResultsError is the backpressure ceiling. It is raised by the pager
// before any row is materialised.
type TooManyResultsError struct {
	Count int64
	Limit int64
}

func (e TooManyResultsError) Error() string {
	return fmt.Sprintf("report matches %d rows, the limit is %d; narrow your filters", e.Count, e.Limit)
}

type FormatError struct {
	Column string
	Type   string
	Value  any
	Err    error
}

func (e FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("column %s: cannot format %v as %s: %v", e.Column, e.Value, e.Type, e.Err)
	}
	return fmt.Sprintf("column %s: cannot format %v as %s", e.Column, e.Value, e.Type)
}

func (e FormatError) Unwrap() error { return e.Err }

// QueryExecutionError wraps a data source failure. Its message is generic;
// the cause stays reachable through Unwrap for logging.
type QueryExecutionError struct {
	ReportID string
	Err      error
}

func (e QueryExecutionError) Error() string {
	return "failed to generate report"
}

func (e QueryExecutionError) Unwrap() error { return e.Err }

type CacheUnavailableError struct {
	Op  string
	Err error
}

func (e CacheUnavailableError) Error() string {
	return fmt.Sprintf("cache unavailable during %s: %v", e.Op, e.Err)
}

func (e CacheUnavailableError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsTooManyResults(err error) bool {
	var target TooManyResultsError
	return errors.As(err, &target)
}

func IsFormat(err error) bool {
	var target FormatError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsQueryExecution(err error) bool {
	var target QueryExecutionError
	return errors.As(err, &target)
}
