// Package errors provides custom error types for the billaudit system.
// The taxonomy separates fatal errors that abort a reconciliation run
// (schema and decode failures) from advisory errors that are logged and
// carried forward (identifier repair misses, per-item API failures).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the billaudit system
var (
	// ErrSchema indicates that a required column is missing from an export
	ErrSchema = errors.New("schema mismatch")

	// ErrDecode indicates that raw file content could not be decoded to text
	ErrDecode = errors.New("undecodable content")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCredentialsRequired indicates that API credentials are required but not configured
	ErrCredentialsRequired = errors.New("API credentials required")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrUnavailable indicates that the remote API is temporarily unavailable
	ErrUnavailable = errors.New("remote API unavailable")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// SchemaError represents a missing required column in an uploaded export.
// It is fatal to the run and names every column that could not be resolved.
type SchemaError struct {
	File    string   // "billing" or "crm"
	Missing []string // column names or detection predicates that failed
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s export: missing required columns: %s", e.File, strings.Join(e.Missing, ", "))
}

// Is implements errors.Is support
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(file string, missing ...string) *SchemaError {
	return &SchemaError{File: file, Missing: missing}
}

// DecodeError represents unreadable file content. It is fatal to the run.
type DecodeError struct {
	File    string
	Charset string
	Err     error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Charset != "" {
		return fmt.Sprintf("%s export: cannot decode content as %s", e.File, e.Charset)
	}
	return fmt.Sprintf("%s export: cannot decode content", e.File)
}

// Unwrap implements errors.Unwrap
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// RepairKind categorizes why an identifier repair did not succeed.
type RepairKind string

const (
	// RepairAmbiguous means more than one CRM entry matched the derived domain.
	RepairAmbiguous RepairKind = "ambiguous"
	// RepairUnresolved means no CRM entry matched, or no usable URL existed.
	RepairUnresolved RepairKind = "unresolved"
)

// RepairError represents a failed repair of a corrupted site identifier.
// It is advisory: the run continues and the affected rows surface later
// as "not in CRM" issues.
type RepairError struct {
	SiteID  string // the corrupted identifier as it appeared in the export
	Domain  string // the derived domain used for the CRM lookup, if any
	Kind    RepairKind
	Matches int // CRM entries matched (0 or >1)
}

// Error implements the error interface
func (e *RepairError) Error() string {
	switch e.Kind {
	case RepairAmbiguous:
		return fmt.Sprintf("repair of %s: %d CRM entries match domain %s", e.SiteID, e.Matches, e.Domain)
	default:
		if e.Domain != "" {
			return fmt.Sprintf("repair of %s: no CRM entry matches domain %s", e.SiteID, e.Domain)
		}
		return fmt.Sprintf("repair of %s: no usable site URL", e.SiteID)
	}
}

// APIError represents a per-item error from the platform API.
// It never aborts the batch; affected issues are retained and tallied.
type APIError struct {
	SiteID     string
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error for site %s (status %d): %s", e.SiteID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error for site %s: %s", e.SiteID, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrUnavailable
	}
	return false
}

// Interpret returns a human-readable explanation of the HTTP status code
// carried by the error, for inclusion in reports and logs.
func (e *APIError) Interpret() string {
	switch e.StatusCode {
	case 400:
		return "Bad request - the request is malformed"
	case 401:
		return "Unauthorized - API credentials are invalid or missing"
	case 403:
		return "Forbidden - no permission for this site; check credentials and account access"
	case 404:
		return "Not found - the site does not exist or belongs to another account"
	case 429:
		return "Too many requests - rate limit reached"
	case 500:
		return "Internal server error - platform side problem"
	case 502:
		return "Bad gateway - platform service temporarily unavailable"
	case 503:
		return "Service unavailable - platform API is temporarily offline"
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("HTTP %d - unexpected error", e.StatusCode)
		}
		return e.Message
	}
}

// NewAPIError creates a new APIError
func NewAPIError(siteID, endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		SiteID:     siteID,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "csv", "yaml", "date", etc.
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsSchema checks if an error is a schema error
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsDecode checks if an error is a decode error
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUnavailable checks if an error indicates remote API unavailability
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(siteID, endpoint string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		SiteID:     siteID,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
