// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package screen

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/media"
)

// VoiceScreenName identifies the text-to-speech screen.
const VoiceScreenName = "voice"

// VoiceGenerator is the part of genapi.Client the voice screen uses.
type VoiceGenerator interface {
	GenerateVoice(ctx context.Context, req genapi.VoiceRequest) (*genapi.VoiceResult, error)
}

// VoiceScreen turns text into playable audio.
type VoiceScreen struct {
	*core
	client  VoiceGenerator
	decoder *media.Decoder
}

// NewVoiceScreen wires a voice screen. A nil presenter discards views.
func NewVoiceScreen(client VoiceGenerator, decoder *media.Decoder, p Presenter) *VoiceScreen {
	return &VoiceScreen{
		core:    newCore(VoiceScreenName, p),
		client:  client,
		decoder: decoder,
	}
}

// Start begins a submission and returns once it is Submitting (or rejected).
// The channel yields the submission's final error.
func (s *VoiceScreen) Start(ctx context.Context, text string) (<-chan error, error) {
	if strings.TrimSpace(text) == "" {
		return nil, s.reject(genapi.NewValidationError("generate-voice", genapi.MsgEmptyPrompt))
	}
	req := genapi.VoiceRequest{Text: text}
	return s.start(ctx, func(ctx context.Context) (outcome, error) {
		res, err := s.client.GenerateVoice(ctx, req)
		if err != nil {
			return outcome{}, err
		}
		audio, err := s.decoder.Decode(ctx, res.AudioData, res.ContentType)
		if err != nil {
			return outcome{}, fmt.Errorf("decode audio: %w", err)
		}
		return outcome{
			media: []*media.DecodedMedia{audio},
			fill: func(v *View) {
				v.Media = refOf(audio, "voice"+media.Extension(audio.MimeType))
			},
		}, nil
	})
}

// Submit runs a submission to completion.
func (s *VoiceScreen) Submit(ctx context.Context, text string) error {
	done, err := s.Start(ctx, text)
	if err != nil {
		return err
	}
	return <-done
}
