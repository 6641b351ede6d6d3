// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package screen

import (
	"errors"

	"github.com/ManuGH/reelgen/internal/auth"
	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/media"
)

var (
	// ErrBusy is returned while a submission is pending.
	ErrBusy = errors.New("screen: a submission is already in progress")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("screen: closed")
	// ErrSuperseded is returned to a submission whose result arrived after Cancel or Close.
	ErrSuperseded = errors.New("screen: submission superseded")
)

// User-facing messages for failures that do not come from the generation API.
const (
	MsgInvalidMedia     = "Invalid media data received"
	MsgUnsupportedMedia = "Unsupported media type received"
	MsgBusy             = "A request is already in progress"
	MsgClosed           = "This screen is closed"
	MsgCancelled        = "Request cancelled"
	MsgLoginRequired    = "Please log in to continue"
	MsgUnknown          = "Something went wrong"
)

// Message maps any error to the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := genapi.UserMessage(err); msg != "" {
		return msg
	}
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return MsgUnsupportedMedia
	case errors.Is(err, media.ErrInvalidBase64), errors.Is(err, media.ErrInvalidDataURI):
		return MsgInvalidMedia
	case errors.Is(err, ErrBusy):
		return MsgBusy
	case errors.Is(err, ErrClosed):
		return MsgClosed
	case errors.Is(err, ErrSuperseded):
		return MsgCancelled
	case errors.Is(err, auth.ErrUnauthorized):
		return MsgLoginRequired
	}
	return MsgUnknown
}
