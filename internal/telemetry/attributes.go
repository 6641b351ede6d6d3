// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Generation attributes
	GenerationEndpointKey   = "generation.endpoint"
	GenerationOutcomeKey    = "generation.outcome"
	GenerationGenreKey      = "generation.genre"
	GenerationIterationsKey = "generation.iterations"
	GenerationVariantKey    = "generation.variant"

	// Media attributes
	MediaMimeTypeKey = "media.mime_type"
	MediaBytesKey    = "media.bytes"
	MediaHandlesKey  = "media.handles"

	// Screen attributes
	ScreenNameKey = "screen.name"
	ScreenSeqKey  = "screen.seq"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ContentAttributes describes a story generation request.
func ContentAttributes(genre string, iterations int, variant string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if genre != "" {
		attrs = append(attrs, attribute.String(GenerationGenreKey, genre))
	}
	if iterations > 0 {
		attrs = append(attrs, attribute.Int(GenerationIterationsKey, iterations))
	}
	if variant != "" {
		attrs = append(attrs, attribute.String(GenerationVariantKey, variant))
	}
	return attrs
}

// MediaAttributes describes a decoded media payload.
func MediaAttributes(mimeType string, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MediaMimeTypeKey, mimeType),
		attribute.Int(MediaBytesKey, size),
	}
}

// ScreenAttributes identifies a screen submission.
func ScreenAttributes(screen string, seq uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ScreenNameKey, screen),
		attribute.Int64(ScreenSeqKey, int64(seq)), // #nosec G115 -- sequence numbers stay far below MaxInt64
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
