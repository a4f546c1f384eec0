package apierror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrValidation         ErrorCode = "VALIDATION_ERROR"
	ErrNetwork            ErrorCode = "NETWORK_ERROR"
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrServerBusiness     ErrorCode = "SERVER_BUSINESS_ERROR"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrConflict           ErrorCode = "CONFLICT"
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e APIError) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Code extracts the taxonomy code from an error chain. Errors that did not
// originate here report as ErrInternalServer.
func Code(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

func Is(err error, code ErrorCode) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsNetwork reports whether the error is network-class: a tagged
// NETWORK_ERROR or a raw transport failure (timeout, refused connection,
// DNS, truncated response). The submission path treats these as "offline"
// even when the connectivity signal claims otherwise, because the signal
// can be stale behind a captive portal or a flapping link.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func IsValidation(err error) bool {
	return Is(err, ErrValidation)
}

func IsStorage(err error) bool {
	return Is(err, ErrStorageUnavailable)
}
