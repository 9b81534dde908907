package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a gateway failure for callers that only need the
// coarse category.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindValidation
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// UnauthorizedError is returned when the server answers 401. By the time
// the caller sees it the session has already been cleared.
type UnauthorizedError struct {
	Method  string
	Path    string
	Message string
}

func (e *UnauthorizedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "session is no longer valid"
	}
	return fmt.Sprintf("unauthorized (401) on %s %s: %s", e.Method, e.Path, msg)
}

// IsUnauthorized reports whether err (or any error in its chain) is an
// UnauthorizedError.
func IsUnauthorized(err error) bool {
	var authErr *UnauthorizedError
	return errors.As(err, &authErr)
}

// ResponseError carries a non-2xx response as the server sent it. A 401
// only shows up here from the anonymous auth endpoints.
type ResponseError struct {
	Method string
	Path   string
	Status int

	// Message is the server's top-level error text, if any.
	Message string

	// Fields holds per-field validation messages, if any.
	Fields map[string][]string

	// Body is the raw response body when it could not be decoded.
	Body string
}

func (e *ResponseError) Error() string {
	detail := e.Message
	if detail == "" && len(e.Fields) > 0 {
		detail = strings.Join(e.FieldMessages(), "; ")
	}
	if detail == "" {
		detail = e.Body
	}
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.Status, e.Method, e.Path, detail)
}

// Validation reports whether the server rejected the input itself.
func (e *ResponseError) Validation() bool {
	if len(e.Fields) > 0 {
		return true
	}
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// FieldMessages flattens Fields into "field: message" lines ordered by
// field name.
func (e *ResponseError) FieldMessages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			out = append(out, fmt.Sprintf("%s: %s", k, msg))
		}
	}
	return out
}

// NetworkError wraps a transport failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("executing request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// KindOf classifies err.
func KindOf(err error) Kind {
	var (
		authErr  *UnauthorizedError
		respErr  *ResponseError
		netErr   *NetworkError
		fieldErr *FieldError
	)
	switch {
	case errors.As(err, &authErr):
		return KindUnauthorized
	case errors.As(err, &respErr):
		if respErr.Validation() {
			return KindValidation
		}
		return KindUnknown
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &fieldErr):
		return KindValidation
	default:
		return KindUnknown
	}
}

// UserMessage picks the most specific user-facing text for err: a server
// validation message first, then the server's error text, then fallback.
func UserMessage(err error, fallback string) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		if msgs := respErr.FieldMessages(); len(msgs) > 0 {
			return msgs[0]
		}
		if respErr.Message != "" {
			return respErr.Message
		}
		return fallback
	}

	var authErr *UnauthorizedError
	if errors.As(err, &authErr) {
		if authErr.Message != "" {
			return authErr.Message
		}
		return "Your session has expired. Please log in again."
	}

	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Error()
	}

	return fallback
}

// FieldError is a client-side required-field failure, reported before any
// request is made.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " is required"
}

// errorPayload is the union of error shapes the server uses:
// {"error": "..."} and {"errors": {"field": ["..."]}}.
type errorPayload struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Errors  json.RawMessage `json:"errors"`
}

// parseErrorBody decodes an error response body into a ResponseError.
func parseErrorBody(method, path string, status int, body []byte) *ResponseError {
	respErr := &ResponseError{Method: method, Path: path, Status: status}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respErr.Body = strings.TrimSpace(string(body))
		return respErr
	}

	switch {
	case payload.Error != "":
		respErr.Message = payload.Error
	case payload.Message != "":
		respErr.Message = payload.Message
	case payload.Detail != "":
		respErr.Message = payload.Detail
	}

	if len(payload.Errors) > 0 {
		respErr.Fields = decodeFields(payload.Errors)
	}
	if respErr.Message == "" && len(respErr.Fields) == 0 {
		respErr.Body = strings.TrimSpace(string(body))
	}
	return respErr
}

// decodeFields accepts {"f": ["a", "b"]} as well as {"f": "a"}.
func decodeFields(raw json.RawMessage) map[string][]string {
	var many map[string][]string
	if json.Unmarshal(raw, &many) == nil {
		return many
	}
	var one map[string]string
	if json.Unmarshal(raw, &one) == nil {
		out := make(map[string][]string, len(one))
		for k, v := range one {
			out[k] = []string{v}
		}
		return out
	}
	return nil
}
