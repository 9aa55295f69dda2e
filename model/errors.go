package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnavailableGateway = errors.New("unavailable gateway")
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrCircuitOpen        = errors.New("gateway circuit open")
)

// UpstreamError is a failed exchange with the payment gateway.
// StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
	Body       any
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway unreachable: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	switch {
	case e.StatusCode == http.StatusNotFound:
		errs = append(errs, ErrOrderNotFound)
	case e.Temporary():
		errs = append(errs, ErrUnavailableGateway)
	}
	return errs
}

// Temporary reports failures that may clear up on their own.
func (e *UpstreamError) Temporary() bool {
	switch e.StatusCode {
	case 0, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError
}

func (e *UpstreamError) ErrorCodes() []string {
	codes := make([]string, 0, 2)
	if e.Code != "" {
		codes = append(codes, e.Code)
	}
	if e.Type != "" {
		codes = append(codes, e.Type)
	}
	return codes
}

// Detail is the value relayed to the caller as the "error" field.
func (e *UpstreamError) Detail() any {
	if e.Body != nil {
		return e.Body
	}
	return e.Error()
}
