// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldScreen    = "screen"
	FieldSeq       = "seq"
	FieldUser      = "user"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"

	// Generation fields
	FieldEndpoint   = "endpoint"
	FieldGenre      = "genre"
	FieldIterations = "iterations"
	FieldVariant    = "variant"
	FieldOutcome    = "outcome"
	FieldMimeType   = "mime_type"
	FieldBytes      = "bytes"
	FieldDrafts     = "drafts"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldBaseURL    = "base_url"
	FieldRemoteAddr = "remote_addr"
)
