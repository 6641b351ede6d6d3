// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package genapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/reelgen/internal/auth"
	xglog "github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/metrics"
	"github.com/ManuGH/reelgen/internal/platform/httpx"
	"github.com/ManuGH/reelgen/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Endpoint paths relative to the base URL.
const (
	EndpointVoice   = "/generate-voice/"
	EndpointContent = "/generate-content/"
)

// DefaultMaxResponseBytes bounds response bodies; base64 video is large but finite.
const DefaultMaxResponseBytes int64 = 64 << 20

const (
	opVoice   = "generate-voice"
	opContent = "generate-content"
)

// Options configures a Client.
type Options struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	// Variant selects how generate-content responses are interpreted.
	Variant Variant
	// HTTPClient overrides the traced default client.
	HTTPClient *http.Client
}

// Client issues generation requests. It never retries; each call makes at most
// one HTTP request.
type Client struct {
	base     string
	http     *http.Client
	maxBody  int64
	variant  Variant
	validate *validator.Validate
	logger   zerolog.Logger
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("genapi: invalid base URL %q", baseURL)
	}

	variant, err := ParseVariant(string(opts.Variant))
	if err != nil {
		return nil, err
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(opts.Timeout)
	}
	maxBody := opts.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseBytes
	}

	return &Client{
		base:     trimmed,
		http:     hc,
		maxBody:  maxBody,
		variant:  variant,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   xglog.WithComponent("genapi").With().Str(xglog.FieldBaseURL, trimmed).Logger(),
	}, nil
}

// Variant reports the configured generate-content response shape.
func (c *Client) Variant() Variant { return c.variant }

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.base }

// GenerateVoice turns text into speech.
func (c *Client) GenerateVoice(ctx context.Context, req VoiceRequest) (*VoiceResult, error) {
	if err := c.check(ctx, opVoice, req.Text, req); err != nil {
		return nil, err
	}

	var out *VoiceResult
	err := c.call(ctx, opVoice, EndpointVoice, req, "", MsgAudioFailed, func(fields map[string]json.RawMessage) error {
		audio, ok := stringField(fields, "audio_data")
		if !ok {
			return &Error{Kind: KindMalformed, Message: MsgNoAudio}
		}
		contentType, ok := stringField(fields, "content_type")
		if !ok {
			return &Error{Kind: KindMalformed, Message: MsgInvalidResponse, Err: errors.New("missing content_type")}
		}
		out = &VoiceResult{AudioData: audio, ContentType: contentType}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateContent generates a story. token, when non-empty, is sent as a Bearer credential.
// The concrete result type follows the client's Variant.
func (c *Client) GenerateContent(ctx context.Context, req ContentRequest, token string) (ContentResult, error) {
	req = req.WithDefaults()
	if err := c.check(ctx, opContent, req.Prompt, req); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "reelgen.genapi.content",
		telemetry.ContentAttributes(string(req.Genre), req.Iterations, string(c.variant))...)
	defer span.End()

	var out ContentResult
	err := c.call(ctx, opContent, EndpointContent, req, token, MsgContentFailed, func(fields map[string]json.RawMessage) error {
		switch c.variant {
		case VariantMulti:
			raw, ok := fields["results"]
			if !ok || isNull(raw) {
				return &Error{Kind: KindMalformed, Message: MsgInvalidResponse, Err: errors.New("missing results")}
			}
			var drafts []Draft
			if err := json.Unmarshal(raw, &drafts); err != nil {
				return &Error{Kind: KindMalformed, Message: MsgInvalidResponse, Err: err}
			}
			if drafts == nil {
				drafts = []Draft{}
			}
			out = &MultiDraftResult{Results: drafts}
		default:
			video, ok := stringField(fields, "video_data")
			if !ok {
				return &Error{Kind: KindMalformed, Message: MsgNoVideo}
			}
			out = &SingleResult{VideoData: video}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// check rejects blank prompts and struct-level violations before any network call.
func (c *Client) check(ctx context.Context, op, prompt string, req any) error {
	var verr *Error
	if strings.TrimSpace(prompt) == "" {
		verr = NewValidationError(op, MsgEmptyPrompt)
	} else if err := c.validate.Struct(req); err != nil {
		verr = NewValidationError(op, validationMessage(err))
		verr.Err = err
	}
	if verr == nil {
		return nil
	}
	metrics.GenerationCounter(op, string(KindValidation)).Inc()
	logger := xglog.WithContext(ctx, c.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "generation.rejected").
		Str(xglog.FieldEndpoint, op).
		Str("reason", verr.Message).
		Msg("request rejected before sending")
	return verr
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Field() {
		case "Prompt", "Text":
			return MsgEmptyPrompt
		case "Genre":
			return fmt.Sprintf("Unsupported genre %q", fe.Value())
		case "Iterations":
			return fmt.Sprintf("Iterations must be between 1 and %d", MaxIterations)
		}
		return fmt.Sprintf("Invalid %s", strings.ToLower(fe.Field()))
	}
	return "Invalid request"
}

// call performs one POST and classifies the outcome. parse runs only for a 2xx
// JSON object without an error field.
func (c *Client) call(ctx context.Context, op, path string, payload any, token, generic string,
	parse func(map[string]json.RawMessage) error) (err error) {
	start := time.Now()
	status := 0

	ctx, span := telemetry.StartSpan(ctx, "reelgen.genapi."+op)
	defer func() {
		outcome := "success"
		if kind := KindOf(err); kind != "" {
			outcome = string(kind)
		}
		elapsed := time.Since(start)
		metrics.ObserveGeneration(op, outcome, elapsed)
		span.SetAttributes(telemetry.HTTPAttributes(http.MethodPost, path, c.base+path, status)...)
		telemetry.EndSpan(span, err, outcome)

		logger := xglog.WithContext(ctx, c.logger)
		ev := logger.Info()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str(xglog.FieldEvent, "generation.completed").
			Str(xglog.FieldEndpoint, op).
			Int(xglog.FieldStatus, status).
			Str(xglog.FieldOutcome, outcome).
			Int64(xglog.FieldDurationMS, elapsed.Milliseconds()).
			Msg("generation call finished")
	}()

	raw, status, err := c.post(ctx, path, payload, token)
	if err != nil {
		if errors.Is(err, ErrResponseTooLarge) {
			return &Error{Kind: KindMalformed, Operation: op, Status: status, Message: MsgInvalidResponse, Err: err}
		}
		return &Error{Kind: KindConnection, Operation: op, Status: status, Message: MsgConnectionFailed, Err: err}
	}

	fields, jsonErr := decodeObject(raw)
	if jsonErr == nil {
		if msg, ok := errorField(fields); ok {
			return &Error{Kind: KindServerReported, Operation: op, Status: status, Message: msg}
		}
	}
	if status < 200 || status > 299 {
		return &Error{Kind: KindServerReported, Operation: op, Status: status, Message: generic}
	}
	if jsonErr != nil {
		return &Error{Kind: KindMalformed, Operation: op, Status: status, Message: MsgInvalidResponse, Err: jsonErr}
	}

	if perr := parse(fields); perr != nil {
		var e *Error
		if errors.As(perr, &e) {
			e.Operation = op
			e.Status = status
			return e
		}
		return &Error{Kind: KindMalformed, Operation: op, Status: status, Message: MsgInvalidResponse, Err: perr}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, token string) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		auth.SetAuthHeader(req.Header, token)
	}
	if rid := xglog.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, resp.StatusCode, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, c.maxBody)
	}
	return data, resp.StatusCode, nil
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if fields == nil {
		return nil, errors.New("decode response: not a JSON object")
	}
	return fields, nil
}

// errorField extracts a non-empty error message. Non-string values are reported verbatim.
func errorField(fields map[string]json.RawMessage) (string, bool) {
	raw, ok := fields["error"]
	if !ok || isNull(raw) {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return string(bytes.TrimSpace(raw)), true
	}
	if msg == "" {
		return "", false
	}
	return msg, true
}

// stringField returns a present, non-empty string field.
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
