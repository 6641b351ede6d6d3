// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package screen

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/reelgen/internal/auth"
	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/media"
)

// StoryScreenName identifies the story generation screen.
const StoryScreenName = "story"

// Media types and names fixed by the generation API.
const (
	VideoType     = "video/mp4"
	DraftVoice    = "audio/wav"
	VideoFilename = "story_reel.mp4"
)

// ContentGenerator is the part of genapi.Client the story screen uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req genapi.ContentRequest, token string) (genapi.ContentResult, error)
}

// StoryInput is one story submission. Zero Genre and Iterations take the screen defaults.
type StoryInput struct {
	Prompt     string       `json:"prompt"`
	Genre      genapi.Genre `json:"genre,omitempty"`
	Iterations int          `json:"iterations,omitempty"`
}

// StoryOptions holds per-screen defaults.
type StoryOptions struct {
	Genre      genapi.Genre
	Iterations int
}

// StoryScreen turns a prompt into a video or a set of illustrated drafts.
type StoryScreen struct {
	*core
	client  ContentGenerator
	decoder *media.Decoder
	tokens  auth.TokenProvider
	opts    StoryOptions
}

// NewStoryScreen wires a story screen for an authorized session. tokens yields
// the bearer token per request; nil uses the session's token.
// It returns auth.ErrUnauthorized when the session is not authorized.
func NewStoryScreen(session *auth.Session, tokens auth.TokenProvider, client ContentGenerator, decoder *media.Decoder, p Presenter, opts StoryOptions) (*StoryScreen, error) {
	if !auth.IsAuthorized(session) {
		return nil, auth.ErrUnauthorized
	}
	if tokens == nil {
		tokens = session
	}
	if opts.Genre == "" {
		opts.Genre = genapi.DefaultGenre
	}
	if opts.Iterations <= 0 {
		opts.Iterations = genapi.DefaultIterations
	}
	return &StoryScreen{
		core:    newCore(StoryScreenName, p),
		client:  client,
		decoder: decoder,
		tokens:  tokens,
		opts:    opts,
	}, nil
}

// Defaults returns the genre and iteration count used for unset input fields.
func (s *StoryScreen) Defaults() StoryOptions { return s.opts }

// Start begins a submission and returns once it is Submitting (or rejected).
// The channel yields the submission's final error.
func (s *StoryScreen) Start(ctx context.Context, in StoryInput) (<-chan error, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, s.reject(genapi.NewValidationError("generate-content", genapi.MsgEmptyPrompt))
	}
	req := genapi.ContentRequest{Prompt: in.Prompt, Genre: in.Genre, Iterations: in.Iterations}
	if req.Genre == "" {
		req.Genre = s.opts.Genre
	}
	if req.Iterations == 0 {
		req.Iterations = s.opts.Iterations
	}

	return s.start(ctx, func(ctx context.Context) (outcome, error) {
		token, err := s.tokens.AuthToken(ctx)
		if err != nil {
			return outcome{}, fmt.Errorf("auth token: %w", err)
		}
		res, err := s.client.GenerateContent(ctx, req, token)
		if err != nil {
			return outcome{}, err
		}
		switch r := res.(type) {
		case *genapi.SingleResult:
			return s.decodeVideo(ctx, r)
		case *genapi.MultiDraftResult:
			return s.decodeDrafts(ctx, r)
		}
		return outcome{}, &genapi.Error{Kind: genapi.KindMalformed, Operation: "generate-content", Message: genapi.MsgInvalidResponse,
			Err: fmt.Errorf("unexpected result %T", res)}
	})
}

// Submit runs a submission to completion.
func (s *StoryScreen) Submit(ctx context.Context, in StoryInput) error {
	done, err := s.Start(ctx, in)
	if err != nil {
		return err
	}
	return <-done
}

func (s *StoryScreen) decodeVideo(ctx context.Context, r *genapi.SingleResult) (outcome, error) {
	video, err := s.decoder.Decode(ctx, r.VideoData, VideoType)
	if err != nil {
		return outcome{}, fmt.Errorf("decode video: %w", err)
	}
	return outcome{
		media: []*media.DecodedMedia{video},
		fill: func(v *View) {
			v.Media = refOf(video, VideoFilename)
		},
	}, nil
}

// decodeDrafts decodes every draft's optional image and voice. Any failure
// releases what was decoded so far and fails the whole submission.
func (s *StoryScreen) decodeDrafts(ctx context.Context, r *genapi.MultiDraftResult) (out outcome, err error) {
	var decoded []*media.DecodedMedia
	defer func() {
		if err != nil {
			media.ReleaseAll(decoded...)
		}
	}()

	views := make([]DraftView, 0, len(r.Results))
	for i, d := range r.Results {
		// files are named by position: iteration is server-supplied and may repeat or be absent
		n := i + 1
		dv := DraftView{Iteration: d.Iteration, Story: d.Story, EnhancedStory: d.EnhancedStory}

		if strings.TrimSpace(d.ImageURL) != "" {
			mimeType, payload, err := media.ImageSource(d.ImageURL)
			if err != nil {
				return outcome{}, fmt.Errorf("draft %d image: %w", n, err)
			}
			img, err := s.decoder.Decode(ctx, payload, mimeType)
			if err != nil {
				return outcome{}, fmt.Errorf("draft %d image: %w", n, err)
			}
			decoded = append(decoded, img)
			dv.Image = refOf(img, fmt.Sprintf("draft_%d_image%s", n, media.Extension(img.MimeType)))
		}

		if strings.TrimSpace(d.VoiceData) != "" {
			voice, err := s.decoder.Decode(ctx, d.VoiceData, DraftVoice)
			if err != nil {
				return outcome{}, fmt.Errorf("draft %d voice: %w", n, err)
			}
			decoded = append(decoded, voice)
			dv.Voice = refOf(voice, fmt.Sprintf("draft_%d_voice%s", n, media.Extension(voice.MimeType)))
		}

		views = append(views, dv)
	}

	return outcome{
		media: decoded,
		fill: func(v *View) {
			v.Drafts = views
		},
	}, nil
}
