// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package genapi

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrValidation        = errors.New("genapi: invalid request")
	ErrConnection        = errors.New("genapi: transport failure or timeout")
	ErrServerReported    = errors.New("genapi: server reported an error")
	ErrMalformedResponse = errors.New("genapi: malformed response")
	ErrResponseTooLarge  = errors.New("genapi: response exceeds size limit")
)

// Kind classifies a failed generation call. Values double as metric outcome labels.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConnection     Kind = "connection"
	KindServerReported Kind = "server_reported"
	KindMalformed      Kind = "malformed"
)

// User-facing messages.
const (
	MsgEmptyPrompt      = "Please enter a prompt"
	MsgConnectionFailed = "Failed to connect to the server"
	MsgAudioFailed      = "Failed to generate audio"
	MsgContentFailed    = "Content generation failed"
	MsgNoAudio          = "No audio data received"
	MsgNoVideo          = "No video data received"
	MsgInvalidResponse  = "Invalid response format"
)

// Error is the rich error returned by Client. Message is safe to show to a user.
type Error struct {
	Kind      Kind
	Operation string
	Status    int
	Message   string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("genapi: %s: %s: %s", e.Operation, e.Kind, e.Message)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the kind's sentinel and the nested error.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConnection:
		return ErrConnection
	case KindServerReported:
		return ErrServerReported
	default:
		return ErrMalformedResponse
	}
}

// KindOf returns the kind of a genapi error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the user-facing message of a genapi error, or "".
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// NewValidationError reports a request rejected before any network call.
func NewValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Operation: op, Message: message}
}
