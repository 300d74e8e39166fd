// Package faults defines the closed set of classified failures shared by the
// scrape and generative lookup paths. Every error that crosses a service
// boundary is one of these kinds; callers can rely on the code token and the
// outward HTTP status without inspecting wrapped causes.
package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Code is the stable machine-readable token for one failure kind.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNoResults  Code = "NO_RESULTS_FOUND"
	CodeElement    Code = "ELEMENT_ERROR"
	CodeParsing    Code = "PARSING_ERROR"
	CodeNetwork    Code = "NETWORK_ERROR"
	CodeTimeout    Code = "TIMEOUT_ERROR"
	CodeService    Code = "SERVICE_ERROR"
)

// Fault is a classified failure carrying the outward-facing status code.
type Fault struct {
	Code    Code
	Message string
	Status  int
	Details map[string]string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// WithDetail attaches one key/value pair to the fault's details map.
func (f *Fault) WithDetail(key, value string) *Fault {
	if f.Details == nil {
		f.Details = make(map[string]string, 1)
	}
	f.Details[key] = value
	return f
}

// New builds a fault with an explicit status, for kinds whose status varies
// by context (e.g. a validation failure of a provider reply surfaces as 422).
func New(code Code, status int, message string) *Fault {
	return &Fault{Code: code, Message: message, Status: status}
}

// Validation reports an invalid caller input.
func Validation(message string) *Fault {
	return &Fault{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

// NoResults reports that the search produced no usable match.
func NoResults(message string) *Fault {
	return &Fault{Code: CodeNoResults, Message: message, Status: http.StatusNotFound}
}

// Element reports a retrieved document missing an expected structural marker.
func Element(message string) *Fault {
	return &Fault{Code: CodeElement, Message: message, Status: http.StatusNotFound}
}

// Parsing reports a document or reply that could not be interpreted.
func Parsing(message string, err error) *Fault {
	return wrap(&Fault{Code: CodeParsing, Message: message, Status: http.StatusInternalServerError}, err)
}

// Network reports a transport-level failure reaching a collaborator.
func Network(message string, err error) *Fault {
	return wrap(&Fault{Code: CodeNetwork, Message: message, Status: http.StatusServiceUnavailable}, err)
}

// Timeout reports a collaborator that did not respond in time.
func Timeout(message string, err error) *Fault {
	return wrap(&Fault{Code: CodeTimeout, Message: message, Status: http.StatusServiceUnavailable}, err)
}

// Service reports an unexpected collaborator-side failure.
func Service(message string, err error) *Fault {
	return wrap(&Fault{Code: CodeService, Message: message, Status: http.StatusInternalServerError}, err)
}

func wrap(f *Fault, err error) *Fault {
	f.Err = err
	if err != nil {
		f.WithDetail("error", err.Error())
	}
	return f
}

// As extracts the fault from an error chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// From classifies an arbitrary error into one of the closed kinds. Errors that
// already carry a fault pass through unchanged; everything else is mapped so
// no unclassified failure crosses a service boundary.
func From(err error) *Fault {
	if err == nil {
		return nil
	}
	if f, ok := As(err); ok {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout("operation timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return Timeout("operation cancelled by caller", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout("collaborator did not respond in time", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Network("transport failure reaching collaborator", err)
	}
	return Service("unexpected error", err)
}
