// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrInvalidBase64   = errors.New("media: payload is not valid base64")
	ErrUnsupportedType = errors.New("media: unsupported content type")
	ErrInvalidDataURI  = errors.New("media: malformed data uri")
)

// DecodeError reports a payload that cannot be turned into playable media.
type DecodeError struct {
	Sentinel error
	MimeType string
	Err      error // Nested lower-level error (e.g. base64.CorruptInputError)
}

func (e *DecodeError) Error() string {
	msg := e.Sentinel.Error()
	if e.MimeType != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.MimeType)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Sentinel
}

func decodeErr(sentinel error, mimeType string, err error) *DecodeError {
	return &DecodeError{Sentinel: sentinel, MimeType: mimeType, Err: err}
}
