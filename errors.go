package qs

import (
	"errors"
	"fmt"
	"strings"
)

var ErrCancelled = &CancelledError{}
var ErrNotConfigured = errors.New("Core is not configured. Set QS_SERVER_URL or create the shared instance first.")
var ErrSharedInUse = errors.New("Shared core already in use and cannot be reconfigured.")
var ErrSharedOverridden = errors.New("Shared core was already overridden once.")

//	Error types reported by servers in the status envelope.
const (
	ServerErrorInternal         = "internal"
	ServerErrorInvalidParameter = "invalid_parameter"
	ServerErrorSSLRequired      = "ssl_required"
	ServerErrorNotFound         = "not_found"
	ServerErrorAlreadyExists    = "already_exists"
	ServerErrorNoRight          = "no_right"
	ServerErrorNotAllowed       = "not_allowed"
	ServerErrorObjectInUse      = "object_in_use"
	ServerErrorInvalidSession   = "invalid_session"
	ServerErrorDisabledUser     = "disabled_user"
	ServerErrorNotImplemented   = "not_implemented"
)

//	Connection-level failure: DNS, TLS, timeout, reset or a cancelled
//	authentication challenge.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("TransportError: %s %s: %s", err.Op, err.URL, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

//	Non-success answer from the server. Code is the HTTP status, Type and
//	Message come from the response body when present.
type ServerError struct {
	Code    int
	Type    string
	Message string
}

func (err *ServerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ServerError: %d", err.Code)
	if err.Type != "" {
		fmt.Fprintf(&b, " %s", err.Type)
	}
	if err.Message != "" {
		fmt.Fprintf(&b, ": %s", err.Message)
	}
	return b.String()
}

type FieldError struct {
	Field   string
	Message string
}

func (fe FieldError) String() string {
	if fe.Field == "" {
		return fe.Message
	}
	return fe.Field + ": " + fe.Message
}

//	FieldErrors lets Validate implementations report several fields at once.
type FieldErrors []FieldError

func (fes FieldErrors) Error() string {
	parts := make([]string, 0, len(fes))
	for _, fe := range fes {
		parts = append(parts, fe.String())
	}
	return strings.Join(parts, "; ")
}

//	Payload did not match the expected response schema.
type ResponseDecodeError struct {
	Fields []FieldError
	Err    error
}

func (err *ResponseDecodeError) Error() string {
	msg := "ResponseDecodeError"
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	if len(err.Fields) > 0 {
		msg += " [" + FieldErrors(err.Fields).Error() + "]"
	}
	return msg
}

func (err *ResponseDecodeError) Unwrap() error {
	return err.Err
}

//	The call was vetoed before any network exchange.
type AbortError struct {
	Method string
	Err    error
}

func (err *AbortError) Error() string {
	if err.Err == nil {
		return "AbortError: " + err.Method
	}
	return fmt.Sprintf("AbortError: %s: %s", err.Method, err.Err)
}

func (err *AbortError) Unwrap() error {
	return err.Err
}

type CancelledError struct{}

func (err *CancelledError) Error() string {
	return "CancelledError: method cancelled"
}

type ConfigError struct {
	Field string
	Err   error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("ConfigError: %s: %s", err.Field, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

func IsCancelled(err error) bool {
	var target *CancelledError
	return errors.As(err, &target)
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsServerError(err error) bool {
	var target *ServerError
	return errors.As(err, &target)
}

func IsDecodeError(err error) bool {
	var target *ResponseDecodeError
	return errors.As(err, &target)
}

func IsAbort(err error) bool {
	var target *AbortError
	return errors.As(err, &target)
}

//	Kind names the error class of err for logs and metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsCancelled(err):
		return "cancelled"
	case IsAbort(err):
		return "abort"
	case IsServerError(err):
		return "server"
	case IsDecodeError(err):
		return "decode"
	case IsTransportError(err):
		return "transport"
	}
	return "unknown"
}
