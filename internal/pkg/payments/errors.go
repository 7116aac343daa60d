package payments

import (
	"errors"
	"fmt"
)

// ErrNoCredential means no secret is configured for the application an
// inbound request claims to belong to. This is an operator problem (500),
// never a signature failure (403).
var ErrNoCredential = errors.New("no credential configured for application")

// ErrOrderNotFound is returned by the VK API client when orders.getById
// yields an empty response for the requested id.
var ErrOrderNotFound = errors.New("order not found upstream")

// VK protocol error codes (a subset the dispatcher emits).
const (
	VKErrCommon       = 1
	VKErrBadRequest   = 11
	VKErrItemNotFound = 20
)

// VKError is the structured error the VK protocol expects inside a 200
// response envelope.
type VKError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
}

func (e *VKError) Error() string {
	return fmt.Sprintf("vk error %d: %s", e.Code, e.Msg)
}

// OK invocation error codes per the callbacks.payment docs.
const (
	OKErrService        = 2
	OKErrSignature      = 104
	OKErrInvalidPayment = 1001
	OKErrSystem         = 9999
)

// OKError carries the HTTP status, the numeric invocation-error code that
// must also be echoed in the Invocation-error response header, and the
// provider-facing message.
type OKError struct {
	Status int
	Code   int
	Msg    string
}

func (e *OKError) Error() string {
	return fmt.Sprintf("ok error %d (http %d): %s", e.Code, e.Status, e.Msg)
}

// Envelope returns the JSON body shape OK mandates for failures.
func (e *OKError) Envelope() map[string]any {
	return map[string]any{
		"error_code": e.Code,
		"error_msg":  e.Msg,
		"error_data": nil,
	}
}
