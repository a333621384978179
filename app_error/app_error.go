package app_error

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Error categories used across the admission and reconciliation paths. Each
// carries its HTTP status so handlers can reply uniformly via Abort.

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) HTTPStatus() int { return 400 }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string   { return e.Message }
func (e *DuplicateError) HTTPStatus() int { return 409 }

type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string   { return "Unauthenticated" }
func (e *AuthRequiredError) HTTPStatus() int { return 401 }

type ForbiddenError struct{}

func (e *ForbiddenError) Error() string   { return "Unauthorized" }
func (e *ForbiddenError) HTTPStatus() int { return 403 }

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string   { return e.Resource + " not found" }
func (e *NotFoundError) HTTPStatus() int { return 404 }

// PaymentDeclinedError carries the gateway's own explanation for a payment
// that did not complete; it is shown to the registrant verbatim so they can
// tell a declined card from a cancelled checkout.
type PaymentDeclinedError struct {
	Detail string
}

func (e *PaymentDeclinedError) Error() string   { return "payment not completed: " + e.Detail }
func (e *PaymentDeclinedError) HTTPStatus() int { return 402 }

// UpstreamError wraps a failed call to the payment gateway, the mail API or
// the certificate renderer. Detail stays in the error for logging; whether it
// is surfaced verbatim is the caller's call (gateway execute failures are,
// mail failures are not).
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error   { return e.Err }
func (e *UpstreamError) HTTPStatus() int { return 502 }

type statusError interface {
	error
	HTTPStatus() int
}

// Abort replies with the error's status, defaulting to 500 for errors that
// carry none.
func Abort(c *gin.Context, err error) {
	var se statusError
	if errors.As(err, &se) {
		c.JSON(se.HTTPStatus(), gin.H{"error": se.Error()})
		return
	}
	c.JSON(500, gin.H{"error": err.Error()})
}

func WithHTTPStatus(c *gin.Context, err error, status int) {
	c.JSON(status, gin.H{"error": err.Error()})
}
