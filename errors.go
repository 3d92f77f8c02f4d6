package instant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Standard sentinel errors for common failure classes.
var (
	// ErrExpand is returned when an expand spec references a field that is
	// not a relation of the entity it is applied to.
	ErrExpand = errors.New("instant: illegal expand")

	// ErrStepFormat is returned when a transaction step has the wrong arity
	// or a field of the wrong type.
	ErrStepFormat = errors.New("instant: malformed transaction step")

	// ErrDecode is returned when a response record cannot be strictly
	// decoded into its generated model type.
	ErrDecode = errors.New("instant: decode failed")

	// ErrAPI is returned for failures surfaced by the admin HTTP API.
	ErrAPI = errors.New("instant: api request failed")

	// ErrLinkArgument is returned when a link or unlink call does not name
	// exactly one linkable relation field.
	ErrLinkArgument = errors.New("instant: invalid link argument")
)

// IllegalExpandKeyError reports an expand key that is not a relation field
// of the entity it was applied to.
type IllegalExpandKeyError struct {
	Entity string
	Field  string
}

// Error implements the error interface.
func (e *IllegalExpandKeyError) Error() string {
	return fmt.Sprintf("instant: illegal expand key %q for entity %q", e.Field, e.Entity)
}

// Is reports whether the target matches the expand sentinel.
func (e *IllegalExpandKeyError) Is(target error) bool {
	return target == ErrExpand
}

// NewIllegalExpandKeyError returns a new IllegalExpandKeyError.
func NewIllegalExpandKeyError(entity, field string) *IllegalExpandKeyError {
	return &IllegalExpandKeyError{Entity: entity, Field: field}
}

// IllegalNestedExpandError reports a dotted expand path whose nested segment
// is not a relation field of the entity reached by the preceding segments.
type IllegalNestedExpandError struct {
	Path    string
	Segment string
	Entity  string // entity the segment was resolved against
}

// Error implements the error interface.
func (e *IllegalNestedExpandError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("instant: illegal nested expand %q under entity %q in path %q", e.Segment, e.Entity, e.Path)
	}
	return fmt.Sprintf("instant: illegal nested expand %q in path %q", e.Segment, e.Path)
}

// Is reports whether the target matches the expand sentinel.
func (e *IllegalNestedExpandError) Is(target error) bool {
	return target == ErrExpand
}

// NewIllegalNestedExpandError returns a new IllegalNestedExpandError.
func NewIllegalNestedExpandError(path, segment, entity string) *IllegalNestedExpandError {
	return &IllegalNestedExpandError{Path: path, Segment: segment, Entity: entity}
}

// IsIllegalExpand returns true if the error was raised during expand
// compilation, for either the root-key or the nested-path form.
func IsIllegalExpand(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrExpand)
}

// StepFormatError reports a transaction step that failed structural
// validation before transmission.
type StepFormatError struct {
	Kind    string // step kind ("update", "merge", "delete", "link", "unlink")
	Field   string // offending positional field, if known
	Message string
}

// Error implements the error interface.
func (e *StepFormatError) Error() string {
	var b strings.Builder
	b.WriteString("instant: malformed ")
	if e.Kind != "" {
		b.WriteString(e.Kind)
		b.WriteString(" ")
	}
	b.WriteString("step")
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the step-format sentinel.
func (e *StepFormatError) Is(target error) bool {
	return target == ErrStepFormat
}

// NewStepFormatError returns a new StepFormatError.
func NewStepFormatError(kind, field, message string) *StepFormatError {
	return &StepFormatError{Kind: kind, Field: field, Message: message}
}

// IsStepFormat returns true if the error is a StepFormatError.
func IsStepFormat(err error) bool {
	if err == nil {
		return false
	}
	var e *StepFormatError
	return errors.As(err, &e) || errors.Is(err, ErrStepFormat)
}

// DecodeError reports a record that could not be decoded into its generated
// model type after normalization.
type DecodeError struct {
	Entity string
	Cause  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("instant: decoding %s record: %v", e.Entity, e.Cause)
	}
	return fmt.Sprintf("instant: decoding %s record failed", e.Entity)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the decode sentinel.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeError returns a new DecodeError.
func NewDecodeError(entity string, cause error) *DecodeError {
	return &DecodeError{Entity: entity, Cause: cause}
}

// IsDecode returns true if the error is a DecodeError.
func IsDecode(err error) bool {
	if err == nil {
		return false
	}
	var e *DecodeError
	return errors.As(err, &e) || errors.Is(err, ErrDecode)
}

// APIError represents an HTTP error surfaced by the admin API. It carries
// context useful for logging and handling; the core never interprets status
// codes beyond retry classification in the transport.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	parts := []string{"instant: api request failed"}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Method != "" {
		parts = append(parts, "method="+e.Method)
	}
	if e.URL != "" {
		parts = append(parts, "url="+e.URL)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the api sentinel.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// IsAPIError returns true if the error is an APIError.
func IsAPIError(err error) bool {
	if err == nil {
		return false
	}
	var e *APIError
	return errors.As(err, &e) || errors.Is(err, ErrAPI)
}

// LinkArgumentError reports a link or unlink call that did not name exactly
// one linkable relation field of its entity.
type LinkArgumentError struct {
	Entity string
	Keys   []string
}

// Error implements the error interface.
func (e *LinkArgumentError) Error() string {
	keys := append([]string(nil), e.Keys...)
	sort.Strings(keys)
	return fmt.Sprintf("instant: link on %q requires exactly one relation field, got [%s]",
		e.Entity, strings.Join(keys, ", "))
}

// Is reports whether the target matches the link-argument sentinel.
func (e *LinkArgumentError) Is(target error) bool {
	return target == ErrLinkArgument
}

// NewLinkArgumentError returns a new LinkArgumentError.
func NewLinkArgumentError(entity string, keys []string) *LinkArgumentError {
	return &LinkArgumentError{Entity: entity, Keys: keys}
}

// IsLinkArgument returns true if the error is a LinkArgumentError.
func IsLinkArgument(err error) bool {
	if err == nil {
		return false
	}
	var e *LinkArgumentError
	return errors.As(err, &e) || errors.Is(err, ErrLinkArgument)
}

// SchemaError reports a schema problem that cannot be recovered by skipping
// the offending entry, such as referencing an unknown entity at build time.
type SchemaError struct {
	Entity  string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("instant: schema error")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// NewSchemaError returns a new SchemaError.
func NewSchemaError(entity, field, message string) *SchemaError {
	return &SchemaError{Entity: entity, Field: field, Message: message}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e)
}
