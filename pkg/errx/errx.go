package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for transport mapping and logging.
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeBusiness      Type = "BUSINESS"
	TypeInternal      Type = "INTERNAL"
	TypeExternal      Type = "EXTERNAL"
)

// defaultStatus maps an error type to the HTTP status used when none was registered
var defaultStatus = map[Type]int{
	TypeValidation:    http.StatusBadRequest,
	TypeNotFound:      http.StatusNotFound,
	TypeConflict:      http.StatusConflict,
	TypeAuthorization: http.StatusForbidden,
	TypeBusiness:      http.StatusUnprocessableEntity,
	TypeInternal:      http.StatusInternalServerError,
	TypeExternal:      http.StatusBadGateway,
}

// Error is the application error carried from repositories up to the HTTP layer.
type Error struct {
	Code       string         `json:"code"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"status"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail returns e with one more detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithError attaches the underlying cause.
func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

// New creates an ad-hoc error that is not part of any registry
func New(message string, t Type) *Error {
	return &Error{
		Code:       string(t),
		Type:       t,
		HTTPStatus: statusFor(t),
		Message:    message,
	}
}

// Wrap wraps err keeping the registry code when err is already an *Error.
func Wrap(err error, message string, t Type) *Error {
	var inner *Error
	if errors.As(err, &inner) {
		return &Error{
			Code:       inner.Code,
			Type:       inner.Type,
			HTTPStatus: inner.HTTPStatus,
			Message:    message,
			Details:    copyDetails(inner.Details),
			Err:        err,
		}
	}
	return &Error{
		Code:       string(t),
		Type:       t,
		HTTPStatus: statusFor(t),
		Message:    message,
		Err:        err,
	}
}

// Is reports whether any error in err's chain carries the given code.
func Is(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsType reports whether err is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

func statusFor(t Type) int {
	if s, ok := defaultStatus[t]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func copyDetails(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ============================================================================
// Registry
// ============================================================================

type entry struct {
	t       Type
	status  int
	message string
}

// Registry holds the error codes of one domain, all prefixed alike.
type Registry struct {
	prefix string
	mu     sync.RWMutex
	codes  map[string]entry
}

func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		codes:  make(map[string]entry),
	}
}

// Register adds a code and returns its fully qualified form (PREFIX_CODE).
func (r *Registry) Register(code string, t Type, status int, message string) string {
	full := r.prefix + "_" + code

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.codes[full]; exists {
		panic("errx: duplicate error code " + full)
	}
	r.codes[full] = entry{t: t, status: status, message: message}
	return full
}

// New builds a fresh error for a registered code.
func (r *Registry) New(code string) *Error {
	r.mu.RLock()
	e, ok := r.codes[code]
	r.mu.RUnlock()
	if !ok {
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			HTTPStatus: http.StatusInternalServerError,
			Message:    "unregistered error code",
		}
	}
	return &Error{
		Code:       code,
		Type:       e.t,
		HTTPStatus: e.status,
		Message:    e.message,
	}
}
