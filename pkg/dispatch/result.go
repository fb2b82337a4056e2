package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind tags the outcome of a request.
type Kind int

const (
	// KindSuccess carries a parsed body without an error field.
	KindSuccess Kind = iota
	// KindDomainError means the backend answered with an error field.
	KindDomainError
	// KindTransportError covers network failures and unparsable bodies.
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindDomainError:
		return "domain_error"
	case KindTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrMalformedBody is the transport error used when a response is not JSON.
var ErrMalformedBody = errors.New("dispatch: response body is not valid JSON")

// Result is exactly one of: Success{Body}, DomainError{Reason} or
// TransportError{Err}. Presenters switch on Kind.
type Result struct {
	Kind   Kind
	Status int
	Body   []byte
	Reason string
	Err    error
}

// Success builds a success result around a JSON body.
func Success(status int, body []byte) Result {
	return Result{Kind: KindSuccess, Status: status, Body: body}
}

// DomainError builds a result for a backend-reported error.
func DomainError(status int, body []byte, reason string) Result {
	return Result{Kind: KindDomainError, Status: status, Body: body, Reason: reason}
}

// TransportError builds a result for a failed exchange.
func TransportError(err error) Result {
	return Result{Kind: KindTransportError, Err: err}
}

func (r Result) OK() bool { return r.Kind == KindSuccess }

// Field returns the string form of a top-level body field, or "" when the
// body lacks it.
func (r Result) Field(path string) string {
	if len(r.Body) == 0 {
		return ""
	}
	return gjson.GetBytes(r.Body, path).String()
}

// Decode unmarshals the body into v.
func (r Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return ErrMalformedBody
	}
	return json.Unmarshal(r.Body, v)
}

// Interpret classifies a response body. Invalid JSON, or JSON that is not an
// object, is a transport error.
// A truthy "error" field makes a domain error whatever the HTTP status.
// Anything else is a success, including non-2xx answers carrying a
// well-formed body without an error field.
func Interpret(status int, body []byte) Result {
	if !gjson.ValidBytes(body) {
		return Result{
			Kind:   KindTransportError,
			Status: status,
			Err:    fmt.Errorf("%w (status %d)", ErrMalformedBody, status),
		}
	}
	if !gjson.ParseBytes(body).IsObject() {
		return Result{
			Kind:   KindTransportError,
			Status: status,
			Err:    fmt.Errorf("%w: expected an object (status %d)", ErrMalformedBody, status),
		}
	}
	if errField := gjson.GetBytes(body, "error"); truthy(errField) {
		return DomainError(status, body, errField.String())
	}
	return Success(status, body)
}

func truthy(res gjson.Result) bool {
	if !res.Exists() {
		return false
	}
	switch res.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return res.Str != ""
	case gjson.Number:
		return res.Num != 0
	default:
		return true
	}
}
