package result

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/rs/zerolog"
)

// Fault classifies why an operation failed. It never leaves the process;
// HTTP handlers use it to pick a status code.
type Fault int

const (
	FaultNone Fault = iota
	FaultDriver
	FaultUnexpected
	FaultNotFound
	FaultUnauthorized
	FaultInvalid
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultDriver:
		return "driver"
	case FaultUnexpected:
		return "unexpected"
	case FaultNotFound:
		return "not_found"
	case FaultUnauthorized:
		return "unauthorized"
	case FaultInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

// HTTPStatus maps a failure classification to a response status.
func (f Fault) HTTPStatus() int {
	switch f {
	case FaultNone:
		return http.StatusOK
	case FaultDriver:
		return http.StatusUnprocessableEntity
	case FaultNotFound:
		return http.StatusNotFound
	case FaultUnauthorized:
		return http.StatusUnauthorized
	case FaultInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Result is the outcome of a data-access operation. Exactly one of Data and
// Error is meaningful, selected by Success.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	Fault   Fault
}

// OK returns a successful result carrying data.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail returns a failed result with the given classification and message.
func Fail[T any](fault Fault, message string) Result[T] {
	return Result[T]{Fault: fault, Error: message}
}

// Status returns ok for a successful result and the fault's status otherwise.
func (r Result[T]) Status(ok int) int {
	if r.Success {
		return ok
	}
	return r.Fault.HTTPStatus()
}

// Outcome is the metric label for the result.
func (r Result[T]) Outcome() string {
	if r.Success {
		return "success"
	}
	return r.Fault.String()
}

type successEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(successEnvelope[T]{Success: true, Data: r.Data})
	}
	return json.Marshal(failureEnvelope{Success: false, Error: r.Error})
}

// Recover must be deferred directly. A panic raised by the operation is
// logged and replaced with an unexpected-fault result carrying message.
func Recover[T any](res *Result[T], logger zerolog.Logger, message string) {
	r := recover()
	if r == nil {
		return
	}
	var stack [4096]byte
	n := runtime.Stack(stack[:], false)
	logger.Error().
		Str("panic", fmt.Sprintf("%v", r)).
		Str("stack", string(stack[:n])).
		Msg("panic recovered in data-access operation")
	*res = Fail[T](FaultUnexpected, message)
}
