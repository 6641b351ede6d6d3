// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media turns base64 media payloads into playable blobs.
//
// Two strategies exist. Decoder.Decode produces raw bytes registered under an
// ephemeral blob handle that must be released once the media is superseded.
// DataURI builds an inline data URI that needs no release. Screens use the
// former for every media kind.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/metrics"
	"github.com/ManuGH/reelgen/internal/telemetry"
)

// Media kinds accepted by the decoder.
const (
	KindAudio = "audio"
	KindImage = "image"
	KindVideo = "video"
)

// DefaultImageType is assumed for image_url values that carry bare base64.
const DefaultImageType = "image/jpeg"

// DecodeBase64 decodes standard base64, padded or not. ASCII whitespace is ignored.
func DecodeBase64(payload string) ([]byte, error) {
	clean := stripSpace(payload)
	enc := base64.StdEncoding
	if len(clean)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	b, err := enc.DecodeString(clean)
	if err != nil {
		return nil, decodeErr(ErrInvalidBase64, "", err)
	}
	return b, nil
}

func stripSpace(s string) string {
	if strings.IndexAny(s, " \t\r\n") < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// NormalizeType validates a declared content type and returns its canonical form.
// Only audio, image and video types are playable.
func NormalizeType(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return "", decodeErr(ErrUnsupportedType, contentType, err)
	}
	if Kind(mediaType) == "" {
		return "", decodeErr(ErrUnsupportedType, mediaType, nil)
	}
	return mime.FormatMediaType(mediaType, params), nil
}

// Kind returns "audio", "image" or "video" for a MIME type, or "" for anything else.
func Kind(mimeType string) string {
	major, _, ok := strings.Cut(strings.ToLower(mimeType), "/")
	if !ok {
		return ""
	}
	switch major {
	case KindAudio, KindImage, KindVideo:
		return major
	}
	return ""
}

// Extension returns the conventional file extension for mimeType, including the dot.
func Extension(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}

// Decoder decodes payloads and registers the result under an ephemeral handle.
type Decoder struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewDecoder returns a decoder that registers media in reg.
func NewDecoder(reg *Registry) *Decoder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Decoder{
		registry: reg,
		logger:   xglog.WithComponent("decoder"),
	}
}

// Registry returns the handle registry backing this decoder.
func (d *Decoder) Registry() *Registry { return d.registry }

// Decode base64-decodes payload, tags it with contentType and registers it.
// An empty contentType is sniffed from the decoded bytes.
func (d *Decoder) Decode(ctx context.Context, payload, contentType string) (m *DecodedMedia, err error) {
	_, span := telemetry.StartSpan(ctx, "reelgen.media.decode")
	errorType := ""
	defer func() { telemetry.EndSpan(span, err, errorType) }()

	data, err := DecodeBase64(payload)
	if err != nil {
		errorType = "invalid_base64"
		metrics.IncDecodeError(errorType)
		var de *DecodeError
		if errors.As(err, &de) {
			de.MimeType = contentType
		}
		return nil, err
	}

	declared := contentType
	if strings.TrimSpace(declared) == "" {
		declared = mimetype.Detect(data).String()
	}
	mimeType, err := NormalizeType(declared)
	if err != nil {
		errorType = "unsupported_type"
		metrics.IncDecodeError(errorType)
		return nil, err
	}
	span.SetAttributes(telemetry.MediaAttributes(mimeType, len(data))...)

	m = &DecodedMedia{Bytes: data, MimeType: mimeType}
	d.registry.register(m)
	metrics.ObservePayload(Kind(mimeType), len(data))

	d.logger.Debug().
		Str(xglog.FieldEvent, "media.decoded").
		Str(xglog.FieldHandle, string(m.Handle)).
		Str(xglog.FieldMimeType, mimeType).
		Int(xglog.FieldBytes, len(data)).
		Msg("media decoded")
	return m, nil
}
