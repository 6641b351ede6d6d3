// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package genapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/reelgen/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mock *MockServer, variant Variant) *Client {
	t.Helper()
	c, err := New(mock.URL, Options{Timeout: 5 * time.Second, Variant: variant})
	require.NoError(t, err)
	return c
}

func requireKind(t *testing.T, err error, kind Kind, msg string) *Error {
	t.Helper()
	require.Error(t, err)
	var gerr *Error
	require.True(t, errors.As(err, &gerr), "expected *genapi.Error, got %T: %v", err, err)
	assert.Equal(t, kind, gerr.Kind)
	assert.Equal(t, msg, gerr.Message)
	return gerr
}

func TestGenerateVoice_Success(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock, VariantSingle)

	res, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", res.ContentType)

	decoded, err := base64.StdEncoding.DecodeString(res.AudioData)
	require.NoError(t, err)
	assert.Len(t, decoded, len(SampleWAV()))
	assert.True(t, strings.HasPrefix(string(decoded), "RIFF"))

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, EndpointVoice, reqs[0].Path)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "application/json", reqs[0].ContentType)
	assert.Empty(t, reqs[0].Authorization)
	assert.JSONEq(t, `{"text":"hello"}`, string(reqs[0].Body))
}

func TestBlankPromptNeverCallsNetwork(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock, VariantSingle)

	for _, prompt := range []string{"", "   ", "\n\t "} {
		_, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: prompt})
		requireKind(t, err, KindValidation, MsgEmptyPrompt)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = c.GenerateContent(context.Background(), ContentRequest{Prompt: prompt}, "tok")
		requireKind(t, err, KindValidation, MsgEmptyPrompt)
	}
	assert.Empty(t, mock.Requests())
}

func TestGenerateContent_RejectsInvalidFields(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock, VariantSingle)

	_, err := c.GenerateContent(context.Background(), ContentRequest{Prompt: "a tale", Genre: "Comedy"}, "")
	requireKind(t, err, KindValidation, `Unsupported genre "Comedy"`)

	_, err = c.GenerateContent(context.Background(), ContentRequest{Prompt: "a tale", Iterations: 99}, "")
	requireKind(t, err, KindValidation, "Iterations must be between 1 and 16")

	assert.Empty(t, mock.Requests())
}

func TestErrorFieldOn2xxSurfacesExactMessage(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointVoice, ErrorReply(http.StatusOK, "X"))
	c := newTestClient(t, mock, VariantSingle)

	res, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	assert.Nil(t, res)
	gerr := requireKind(t, err, KindServerReported, "X")
	assert.Equal(t, http.StatusOK, gerr.Status)
	assert.ErrorIs(t, err, ErrServerReported)
}

func TestErrorFieldOnNon2xx(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointContent, ErrorReply(http.StatusBadRequest, "prompt rejected"))
	c := newTestClient(t, mock, VariantSingle)

	_, err := c.GenerateContent(context.Background(), ContentRequest{Prompt: "p"}, "tok")
	gerr := requireKind(t, err, KindServerReported, "prompt rejected")
	assert.Equal(t, http.StatusBadRequest, gerr.Status)
}

func TestNon2xxWithoutErrorUsesGenericMessage(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointVoice, Reply{Status: http.StatusInternalServerError, Raw: []byte("upstream exploded")})
	mock.SetReply(EndpointContent, Reply{Status: http.StatusUnauthorized, Body: map[string]string{"detail": "no"}})
	c := newTestClient(t, mock, VariantSingle)

	_, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	gerr := requireKind(t, err, KindServerReported, MsgAudioFailed)
	assert.Equal(t, http.StatusInternalServerError, gerr.Status)

	_, err = c.GenerateContent(context.Background(), ContentRequest{Prompt: "p"}, "tok")
	gerr = requireKind(t, err, KindServerReported, MsgContentFailed)
	assert.Equal(t, http.StatusUnauthorized, gerr.Status)
}

func TestMissingAudioIsMalformed(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointVoice, Reply{Body: map[string]string{"content_type": "audio/wav"}})
	c := newTestClient(t, mock, VariantSingle)

	_, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	requireKind(t, err, KindMalformed, MsgNoAudio)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestNonJSONSuccessIsMalformed(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointVoice, Reply{Raw: []byte("<html>ok</html>"), ContentType: "text/html"})
	c := newTestClient(t, mock, VariantSingle)

	_, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	requireKind(t, err, KindMalformed, MsgInvalidResponse)
}

func TestGenerateContent_Single(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock, VariantSingle)

	res, err := c.GenerateContent(context.Background(), ContentRequest{Prompt: "a dark forest"}, "secret-token")
	require.NoError(t, err)

	single, ok := res.(*SingleResult)
	require.True(t, ok, "expected *SingleResult, got %T", res)
	assert.Equal(t, VariantSingle, single.Variant())
	assert.Equal(t, base64.StdEncoding.EncodeToString(SampleMP4()), single.VideoData)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer secret-token", reqs[0].Authorization)

	var body ContentRequest
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, ContentRequest{Prompt: "a dark forest", Genre: GenreAdventure, Iterations: 4}, body)
}

func TestGenerateContent_SingleMissingVideo(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointContent, Reply{Body: map[string]string{}})
	c := newTestClient(t, mock, VariantSingle)

	_, err := c.GenerateContent(context.Background(), ContentRequest{Prompt: "p"}, "")
	requireKind(t, err, KindMalformed, MsgNoVideo)
}

func TestGenerateContent_Multi(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetReply(EndpointContent, DraftsReply(SampleDrafts(4)))
	c := newTestClient(t, mock, VariantMulti)

	res, err := c.GenerateContent(context.Background(),
		ContentRequest{Prompt: "castle", Genre: GenreHorror, Iterations: 4}, "tok")
	require.NoError(t, err)

	multi, ok := res.(*MultiDraftResult)
	require.True(t, ok, "expected *MultiDraftResult, got %T", res)
	require.Len(t, multi.Results, 4)
	for i, d := range multi.Results {
		assert.Equal(t, i+1, d.Iteration)
		assert.Equal(t, SampleDrafts(4)[i].Story, d.Story)
	}
	assert.Empty(t, multi.Results[3].ImageURL)
	assert.Empty(t, multi.Results[3].VoiceData)
}

func TestGenerateContent_MultiInvalidResults(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock, VariantMulti)

	// default reply is the single-video shape
	_, err := c.GenerateContent(context.Background(), ContentRequest{Prompt: "p"}, "")
	requireKind(t, err, KindMalformed, MsgInvalidResponse)

	mock.SetReply(EndpointContent, Reply{Body: map[string]any{"results": "nope"}})
	_, err = c.GenerateContent(context.Background(), ContentRequest{Prompt: "p"}, "")
	requireKind(t, err, KindMalformed, MsgInvalidResponse)
}

func TestConnectionFailure(t *testing.T) {
	mock := NewMockServer()
	c := newTestClient(t, mock, VariantSingle)
	mock.Close()

	_, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	requireKind(t, err, KindConnection, MsgConnectionFailed)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestContextCancelIsConnectionError(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	release := mock.Hold(EndpointVoice)
	defer release()
	c := newTestClient(t, mock, VariantSingle)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.GenerateVoice(ctx, VoiceRequest{Text: "hello"})
	requireKind(t, err, KindConnection, MsgConnectionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.RequestCount(EndpointVoice))
}

func TestClientTimeoutIsConnectionError(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetDelay(EndpointVoice, 2*time.Second)
	c, err := New(mock.URL, Options{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	requireKind(t, err, KindConnection, MsgConnectionFailed)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResponseSizeLimit(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c, err := New(mock.URL, Options{MaxResponseBytes: 32})
	require.NoError(t, err)

	_, err = c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	requireKind(t, err, KindMalformed, MsgInvalidResponse)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestOutcomeMetrics(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock, VariantSingle)

	success := metrics.GenerationCounter(opVoice, "success")
	rejected := metrics.GenerationCounter(opVoice, string(KindValidation))
	beforeOK, beforeRejected := testutil.ToFloat64(success), testutil.ToFloat64(rejected)

	_, err := c.GenerateVoice(context.Background(), VoiceRequest{Text: "hello"})
	require.NoError(t, err)
	_, err = c.GenerateVoice(context.Background(), VoiceRequest{Text: " "})
	require.Error(t, err)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejected))
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New("localhost:8000", Options{})
	require.Error(t, err)

	_, err = New("http://localhost:8000", Options{Variant: "both"})
	require.ErrorIs(t, err, ErrValidation)

	c, err := New("http://localhost:8000/", Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Equal(t, VariantSingle, c.Variant())
}

func TestParseGenre(t *testing.T) {
	g, err := ParseGenre("horror")
	require.NoError(t, err)
	assert.Equal(t, GenreHorror, g)

	_, err = ParseGenre("Comedy")
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, []Genre{GenreHorror, GenreAdventure, GenreFantasy}, Genres())
}
