// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package genapi is the client for the remote media generation API.
package genapi

import (
	"fmt"
	"strings"
)

// Genre selects the story style for content generation.
type Genre string

const (
	GenreHorror    Genre = "Horror"
	GenreAdventure Genre = "Adventure"
	GenreFantasy   Genre = "Fantasy"
)

// Defaults applied to content requests that leave fields unset.
const (
	DefaultGenre      = GenreAdventure
	DefaultIterations = 4
	MaxIterations     = 16
)

var genres = []Genre{GenreHorror, GenreAdventure, GenreFantasy}

// Genres returns the supported genres in display order.
func Genres() []Genre {
	out := make([]Genre, len(genres))
	copy(out, genres)
	return out
}

// ParseGenre matches s case-insensitively against the supported genres.
func ParseGenre(s string) (Genre, error) {
	s = strings.TrimSpace(s)
	for _, g := range genres {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: unknown genre %q", ErrValidation, s)
}

// Variant names the response shape of generate-content.
type Variant string

const (
	VariantSingle Variant = "single" // {video_data}
	VariantMulti  Variant = "multi"  // {results:[...]}
)

// ParseVariant parses a configured content variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantSingle, "":
		return VariantSingle, nil
	case VariantMulti:
		return VariantMulti, nil
	}
	return "", fmt.Errorf("%w: unknown content variant %q", ErrValidation, s)
}

// VoiceRequest is the body of POST /generate-voice/.
type VoiceRequest struct {
	Text string `json:"text" validate:"required"`
}

// ContentRequest is the body of POST /generate-content/.
type ContentRequest struct {
	Prompt     string `json:"prompt" validate:"required"`
	Genre      Genre  `json:"genre" validate:"required,oneof=Horror Adventure Fantasy"`
	Iterations int    `json:"iterations" validate:"min=1,max=16"`
}

// WithDefaults fills an unset genre and iteration count.
func (r ContentRequest) WithDefaults() ContentRequest {
	if r.Genre == "" {
		r.Genre = DefaultGenre
	}
	if r.Iterations == 0 {
		r.Iterations = DefaultIterations
	}
	return r
}

// VoiceResult carries base64 audio and its MIME type.
type VoiceResult struct {
	AudioData   string `json:"audio_data"`
	ContentType string `json:"content_type"`
}

// ContentResult is either *SingleResult or *MultiDraftResult, depending on the
// client's configured Variant.
type ContentResult interface {
	Variant() Variant
	contentResult()
}

// SingleResult is one finished video.
type SingleResult struct {
	VideoData string `json:"video_data"`
}

// Variant implements ContentResult.
func (*SingleResult) Variant() Variant { return VariantSingle }
func (*SingleResult) contentResult() {}

// MultiDraftResult is a list of story drafts, one per iteration.
type MultiDraftResult struct {
	Results []Draft `json:"results"`
}

// Variant implements ContentResult.
func (*MultiDraftResult) Variant() Variant { return VariantMulti }
func (*MultiDraftResult) contentResult() {}

// Draft is one iteration of a multi-draft story. VoiceData is base64 audio;
// ImageURL is either raw base64 or a data URI.
type Draft struct {
	Iteration     int    `json:"iteration"`
	Story         string `json:"story"`
	EnhancedStory string `json:"enhanced_story,omitempty"`
	VoiceData     string `json:"voice_data,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
}
