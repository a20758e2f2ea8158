package rhizo

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConversion    ErrorType = "conversion"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeInternal      ErrorType = "internal"
)

// RhizoError is the single error type surfaced by mapping generation,
// record conversion and dataset export.
type RhizoError struct {
	Type      ErrorType      `json:"type"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	ModelType string         `json:"modelType,omitempty"`
	Method    string         `json:"method,omitempty"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *RhizoError) Error() string {
	if e.ModelType != "" && e.Method != "" {
		return fmt.Sprintf("[%s:%s] %s::%s: %s", e.Type, e.Code, e.ModelType, e.Method, e.Message)
	}
	if e.ModelType != "" {
		return fmt.Sprintf("[%s:%s] model %s: %s", e.Type, e.Code, e.ModelType, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *RhizoError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to a RhizoError
func (e *RhizoError) WithDetails(details map[string]any) *RhizoError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to a RhizoError
func (e *RhizoError) WithDetail(key string, value any) *RhizoError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a RhizoError
func (e *RhizoError) WithCause(cause error) *RhizoError {
	e.Cause = cause
	return e
}

// WithModel adds the offending model type name
func (e *RhizoError) WithModel(modelType string) *RhizoError {
	e.ModelType = modelType
	return e
}

// WithMethod adds the offending accessor or converter method name
func (e *RhizoError) WithMethod(method string) *RhizoError {
	e.Method = method
	return e
}

// WithField adds field context to a RhizoError
func (e *RhizoError) WithField(field string) *RhizoError {
	e.Field = field
	return e
}

const (
	// Mapping generation errors
	ErrCodeMissingFallback       = "MISSING_FALLBACK_CONVERTER"
	ErrCodeInvalidConverter      = "INVALID_CONVERTER"
	ErrCodeUnsupportedReturnType = "UNSUPPORTED_RETURN_TYPE"
	ErrCodeNoAttributes          = "NO_ATTRIBUTES"
	ErrCodeNotAModel             = "NOT_A_MODEL"
	ErrCodeDuplicateAttribute    = "DUPLICATE_ATTRIBUTE"

	// Conversion errors
	ErrCodeModelTypeMismatch = "MODEL_TYPE_MISMATCH"
	ErrCodeInvalidModel      = "INVALID_MODEL"
	ErrCodeInvalidJSON       = "INVALID_JSON"

	// Validation errors
	ErrCodeSchemaValidation = "SCHEMA_VALIDATION_FAILED"

	// Storage errors
	ErrCodeSinkWriteFailed = "SINK_WRITE_FAILED"
	ErrCodeSinkUnavailable = "SINK_UNAVAILABLE"
)

// NewRhizoError creates a new RhizoError
func NewRhizoError(errorType ErrorType, code, message string) *RhizoError {
	return &RhizoError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewConfigurationError creates a build-time error. Configuration errors
// abort mapping generation for the offending type.
func NewConfigurationError(code, message string) *RhizoError {
	return NewRhizoError(ErrorTypeConfiguration, code, message)
}

// NewConversionError creates an error raised while bridging a model instance.
func NewConversionError(code, message string) *RhizoError {
	return NewRhizoError(ErrorTypeConversion, code, message)
}

// NewValidationError creates a schema validation error
func NewValidationError(field, message string) *RhizoError {
	return NewRhizoError(ErrorTypeValidation, ErrCodeSchemaValidation, message).WithField(field)
}

// NewStorageError creates an error raised by a record sink
func NewStorageError(code, message string) *RhizoError {
	return NewRhizoError(ErrorTypeStorage, code, message)
}

// IsConfigurationError reports whether err is, or wraps, a configuration error.
func IsConfigurationError(err error) bool {
	return hasErrorType(err, ErrorTypeConfiguration)
}

// IsStorageError reports whether err is, or wraps, a storage error.
func IsStorageError(err error) bool {
	return hasErrorType(err, ErrorTypeStorage)
}

// ErrorCode returns the code of the first RhizoError in err's chain.
func ErrorCode(err error) string {
	var re *RhizoError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func hasErrorType(err error, t ErrorType) bool {
	var re *RhizoError
	if errors.As(err, &re) {
		return re.Type == t
	}
	return false
}
