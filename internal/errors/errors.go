// Package errors provides structured error types for the compatibility
// oracle. Every error carries a category and a code so that scenarios can
// match expected failures and reports can group outcomes. Nothing the oracle
// raises is retryable: an engine failure is signal, not transient noise.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors by the component that raised them.
type ErrorCategory string

const (
	ErrCategoryTypeMapping   ErrorCategory = "TYPE_MAPPING"
	ErrCategoryEncoding      ErrorCategory = "ENCODING"
	ErrCategoryEngine        ErrorCategory = "ENGINE"
	ErrCategoryCompatibility ErrorCategory = "COMPATIBILITY"
	ErrCategoryScenario      ErrorCategory = "SCENARIO"
	ErrCategoryValue         ErrorCategory = "VALUE"
	ErrCategoryStorage       ErrorCategory = "STORAGE"
	ErrCategoryInternal      ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Type mapping codes
	CodeUnsupportedTypeMapping = "UNSUPPORTED_TYPE_MAPPING"

	// Encoding codes
	CodeEncodingRoundTrip = "ENCODING_ROUND_TRIP"

	// Engine codes
	CodeEngineQueryFailed = "ENGINE_QUERY_FAILED"

	// Compatibility codes
	CodeCompatibilityViolation = "COMPATIBILITY_VIOLATION"

	// Scenario codes
	CodeInvalidScenario        = "INVALID_SCENARIO"
	CodeExpectedFailureMissing = "EXPECTED_FAILURE_MISSING"
	CodeTimeout                = "TIMEOUT"
	CodeTeardownFailed         = "TEARDOWN_FAILED"
	CodeRunAborted             = "RUN_ABORTED"

	// Value codes
	CodeNormalizeFailed = "NORMALIZE_FAILED"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// OracleError is the structured error type used throughout the oracle.
type OracleError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *OracleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *OracleError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *OracleError) Is(target error) bool {
	var t *OracleError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new OracleError.
func New(category ErrorCategory, code, message string) *OracleError {
	return &OracleError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new OracleError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *OracleError {
	return &OracleError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *OracleError) WithDetails(details map[string]interface{}) *OracleError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the category of the outermost structured error in an
// error chain. Returns empty string if there is none.
func GetCategory(err error) ErrorCategory {
	category, _ := classify(err)
	return category
}

// GetCode extracts the code of the outermost structured error in an error
// chain. Returns empty string if there is none.
func GetCode(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (ErrorCategory, string) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch t := e.(type) {
		case *OracleError:
			return t.Category, t.Code
		case *EngineQueryError:
			return ErrCategoryEngine, CodeEngineQueryFailed
		case *CompatibilityViolation:
			return ErrCategoryCompatibility, CodeCompatibilityViolation
		}
	}
	return "", ""
}

// IsPreflight reports whether err was detected before any query was issued.
// Pre-flight errors fail a scenario fast.
func IsPreflight(err error) bool {
	switch GetCategory(err) {
	case ErrCategoryTypeMapping, ErrCategoryEncoding:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err invalidates the whole run rather than one
// scenario. A literal that does not survive its own grammar means every
// statement rendered with that grammar is suspect.
func IsFatal(err error) bool {
	return GetCategory(err) == ErrCategoryEncoding
}

// EngineQueryError reports that an engine rejected a statement. RawMessage is
// the engine's message as received; expected-failure patterns match on it.
type EngineQueryError struct {
	Engine     string
	SQL        string
	RawMessage string
	Cause      error
}

func (e *EngineQueryError) Error() string {
	return fmt.Sprintf("[%s:%s] %s rejected query: %s", ErrCategoryEngine, CodeEngineQueryFailed, e.Engine, e.RawMessage)
}

func (e *EngineQueryError) Unwrap() error {
	return e.Cause
}

// Is matches any OracleError sentinel carrying the engine category and code.
func (e *EngineQueryError) Is(target error) bool {
	var t *OracleError
	if errors.As(target, &t) {
		return t.Category == ErrCategoryEngine && t.Code == CodeEngineQueryFailed
	}
	return false
}

// NewEngineQueryError wraps an endpoint failure.
func NewEngineQueryError(engine, sql string, cause error) *EngineQueryError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &EngineQueryError{Engine: engine, SQL: sql, RawMessage: msg, Cause: cause}
}

// AsEngineQueryError returns the EngineQueryError in err's chain, or nil.
func AsEngineQueryError(err error) *EngineQueryError {
	var ee *EngineQueryError
	if errors.As(err, &ee) {
		return ee
	}
	return nil
}

// EngineOutput is one engine's side of a comparison, both raw and normalized.
type EngineOutput struct {
	Engine     string   `json:"engine"`
	SQL        string   `json:"sql"`
	Raw        [][]any  `json:"raw,omitempty"`
	Normalized []string `json:"normalized"`
}

// CompatibilityViolation reports that both engines succeeded but their
// normalized results differ, or differ from the expected rows.
type CompatibilityViolation struct {
	Scenario  string       `json:"scenario"`
	Assertion string       `json:"assertion"`
	Expected  []string     `json:"expected,omitempty"`
	ActualA   EngineOutput `json:"actual_a"`
	ActualB   EngineOutput `json:"actual_b"`
	Reason    string       `json:"reason"`
}

func (v *CompatibilityViolation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] scenario %q assertion %q: %s", ErrCategoryCompatibility, CodeCompatibilityViolation, v.Scenario, v.Assertion, v.Reason)
	if v.Expected != nil {
		fmt.Fprintf(&b, "\n  expected: %s", strings.Join(v.Expected, " | "))
	}
	fmt.Fprintf(&b, "\n  %s: %s", v.ActualA.Engine, strings.Join(v.ActualA.Normalized, " | "))
	fmt.Fprintf(&b, "\n  %s: %s", v.ActualB.Engine, strings.Join(v.ActualB.Normalized, " | "))
	return b.String()
}

// Is matches any OracleError sentinel carrying the compatibility category and code.
func (v *CompatibilityViolation) Is(target error) bool {
	var t *OracleError
	if errors.As(target, &t) {
		return t.Category == ErrCategoryCompatibility && t.Code == CodeCompatibilityViolation
	}
	return false
}

// AsCompatibilityViolation returns the CompatibilityViolation in err's chain, or nil.
func AsCompatibilityViolation(err error) *CompatibilityViolation {
	var cv *CompatibilityViolation
	if errors.As(err, &cv) {
		return cv
	}
	return nil
}

// Sentinels for errors.Is checks.
var (
	ErrUnsupportedTypeMapping = New(ErrCategoryTypeMapping, CodeUnsupportedTypeMapping, "unsupported type mapping")
	ErrEncodingRoundTrip      = New(ErrCategoryEncoding, CodeEncodingRoundTrip, "encoding round trip failed")
	ErrEngineQuery            = New(ErrCategoryEngine, CodeEngineQueryFailed, "engine query failed")
	ErrCompatibilityViolation = New(ErrCategoryCompatibility, CodeCompatibilityViolation, "compatibility violation")
	ErrTimeout                = New(ErrCategoryScenario, CodeTimeout, "scenario timed out")
)

// Convenience constructors for common errors.

func NewUnsupportedTypeMapping(engine, subject, reason string) *OracleError {
	return New(ErrCategoryTypeMapping, CodeUnsupportedTypeMapping,
		fmt.Sprintf("%s: %s is not supported: %s", engine, subject, reason)).
		WithDetails(map[string]interface{}{"engine": engine, "subject": subject})
}

func NewEncodingRoundTripError(grammar, raw, literal, parsed string) *OracleError {
	return New(ErrCategoryEncoding, CodeEncodingRoundTrip,
		fmt.Sprintf("%s literal %s parses back to %q, want %q", grammar, literal, parsed, raw)).
		WithDetails(map[string]interface{}{"grammar": grammar, "raw": raw, "literal": literal, "parsed": parsed})
}

func NewScenarioError(code, message string, cause error) *OracleError {
	return Wrap(ErrCategoryScenario, code, message, cause)
}

func NewValueError(message string, cause error) *OracleError {
	return Wrap(ErrCategoryValue, CodeNormalizeFailed, message, cause)
}

func NewStorageError(code, message string, cause error) *OracleError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *OracleError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
