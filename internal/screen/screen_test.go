// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package screen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/reelgen/internal/auth"
	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/media"
	"github.com/ManuGH/reelgen/internal/metrics"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	views []View
}

func (r *recorder) Present(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.views))
	for i, v := range r.views {
		out[i] = v.State
	}
	return out
}

func (r *recorder) Last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

type fixture struct {
	mock    *genapi.MockServer
	client  *genapi.Client
	decoder *media.Decoder
	rec     *recorder
}

func newFixture(t *testing.T, variant genapi.Variant) *fixture {
	t.Helper()
	mock := genapi.NewMockServer()
	t.Cleanup(mock.Close)
	client, err := genapi.New(mock.URL, genapi.Options{Timeout: 5 * time.Second, Variant: variant})
	require.NoError(t, err)
	return &fixture{
		mock:    mock,
		client:  client,
		decoder: media.NewDecoder(media.NewRegistry()),
		rec:     &recorder{},
	}
}

func (f *fixture) live() int { return f.decoder.Registry().Live() }

func (f *fixture) story(t *testing.T) *StoryScreen {
	t.Helper()
	s, err := NewStoryScreen(auth.NewSession("ada", "tok-123"), nil, f.client, f.decoder, f.rec, StoryOptions{})
	require.NoError(t, err)
	return s
}

var ignoreBuffers = cmpopts.IgnoreFields(MediaRef{}, "Handle", "Bytes")

func TestVoiceScreen_Success(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	require.NoError(t, s.Submit(context.Background(), "hello"))

	want := View{
		Screen: VoiceScreenName,
		State:  StateSuccess,
		Seq:    1,
		Media: &MediaRef{
			MimeType: "audio/wav",
			Kind:     media.KindAudio,
			Size:     len(genapi.SampleWAV()),
			Filename: "voice" + media.Extension("audio/wav"),
		},
	}
	if diff := cmp.Diff(want, s.View(), ignoreBuffers); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, genapi.SampleWAV(), s.View().Media.Bytes)
	assert.Equal(t, []State{StateSubmitting, StateSuccess}, f.rec.States())
	assert.Equal(t, 1, f.live())

	m, ok := f.decoder.Registry().Lookup(s.View().Media.Handle)
	require.True(t, ok)
	assert.Equal(t, "audio/wav", m.MimeType)
}

func TestVoiceScreen_BlankPromptFailsWithoutNetwork(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	err := s.Submit(context.Background(), "   ")
	require.ErrorIs(t, err, genapi.ErrValidation)

	v := s.View()
	assert.Equal(t, StateFailure, v.State)
	assert.Equal(t, genapi.MsgEmptyPrompt, v.Error)
	assert.Nil(t, v.Media)
	assert.Empty(t, f.mock.Requests())
}

func TestVoiceScreen_ServerErrorShownVerbatim(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	f.mock.SetReply(genapi.EndpointVoice, genapi.ErrorReply(http.StatusOK, "X"))
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	require.Error(t, s.Submit(context.Background(), "hello"))

	v := s.View()
	assert.Equal(t, StateFailure, v.State)
	assert.Equal(t, "X", v.Error)
	assert.Nil(t, v.Media)
	assert.Zero(t, f.live())
}

func TestVoiceScreen_MissingAudio(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	f.mock.SetReply(genapi.EndpointVoice, genapi.Reply{Body: map[string]string{"content_type": "audio/wav"}})
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	err := s.Submit(context.Background(), "hello")
	require.ErrorIs(t, err, genapi.ErrMalformedResponse)
	assert.Equal(t, StateFailure, s.State())
	assert.Equal(t, genapi.MsgNoAudio, s.View().Error)
}

func TestVoiceScreen_UndecodableAudio(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	f.mock.SetReply(genapi.EndpointVoice, genapi.Reply{Body: map[string]string{
		"audio_data": "not base64!", "content_type": "audio/wav",
	}})
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	err := s.Submit(context.Background(), "hello")
	require.ErrorIs(t, err, media.ErrInvalidBase64)
	assert.Equal(t, MsgInvalidMedia, s.View().Error)
	assert.Zero(t, f.live())
}

func TestNewSubmissionClearsPreviousResult(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	require.NoError(t, s.Submit(context.Background(), "first"))
	first := s.View().Media
	require.NotNil(t, first)
	require.Equal(t, 1, f.live())

	release := f.mock.Hold(genapi.EndpointVoice)
	done, err := s.Start(context.Background(), "second")
	require.NoError(t, err)

	// Before the response arrives, the old media is gone and released.
	pending := s.View()
	assert.Equal(t, StateSubmitting, pending.State)
	assert.Nil(t, pending.Media)
	assert.Empty(t, pending.Error)
	assert.Zero(t, f.live())
	_, ok := f.decoder.Registry().Lookup(first.Handle)
	assert.False(t, ok, "previous handle should be revoked")

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.live())
	assert.NotEqual(t, first.Handle, s.View().Media.Handle)

	// A failure followed by a new submission clears the error right away.
	f.mock.SetReply(genapi.EndpointVoice, genapi.ErrorReply(http.StatusInternalServerError, "boom"))
	require.Error(t, s.Submit(context.Background(), "third"))
	require.Equal(t, "boom", s.View().Error)
	assert.Zero(t, f.live())

	f.mock.SetReply(genapi.EndpointVoice, genapi.VoiceReply(genapi.SampleWAV(), "audio/wav"))
	release = f.mock.Hold(genapi.EndpointVoice)
	done, err = s.Start(context.Background(), "fourth")
	require.NoError(t, err)
	assert.Empty(t, s.View().Error)
	release()
	require.NoError(t, <-done)
}

func TestSubmitWhileBusy(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	release := f.mock.Hold(genapi.EndpointVoice)
	done, err := s.Start(context.Background(), "one")
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "two")
	require.ErrorIs(t, err, ErrBusy)
	// blank input while busy is still reported as busy
	_, err = s.Start(context.Background(), " ")
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, StateSubmitting, s.State())

	release()
	require.NoError(t, <-done)
	require.Eventually(t, func() bool { return f.mock.RequestCount(genapi.EndpointVoice) == 1 }, time.Second, 10*time.Millisecond)
}

func TestStoryScreen_Drafts(t *testing.T) {
	f := newFixture(t, genapi.VariantMulti)
	drafts := genapi.SampleDrafts(4)
	f.mock.SetReply(genapi.EndpointContent, genapi.DraftsReply(drafts))
	s := f.story(t)

	require.NoError(t, s.Submit(context.Background(), StoryInput{Prompt: "an old lighthouse", Genre: genapi.GenreHorror, Iterations: 4}))

	v := s.View()
	require.Equal(t, StateSuccess, v.State)
	require.Len(t, v.Drafts, 4)
	for i, d := range v.Drafts {
		assert.Equal(t, drafts[i].Story, d.Story, "story %d must be verbatim", i+1)
		assert.Equal(t, drafts[i].EnhancedStory, d.EnhancedStory)
		assert.Equal(t, drafts[i].ImageURL != "", d.Image != nil, "image presence for draft %d", i+1)
		assert.Equal(t, drafts[i].VoiceData != "", d.Voice != nil, "voice presence for draft %d", i+1)
	}
	assert.Equal(t, "image/jpeg", v.Drafts[0].Image.MimeType)
	assert.Equal(t, "audio/wav", v.Drafts[0].Voice.MimeType)
	assert.Equal(t, "image/png", v.Drafts[1].Image.MimeType)
	assert.Equal(t, 5, f.live())
	assert.Len(t, v.Refs(), 5)

	reqs := f.mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer tok-123", reqs[0].Authorization)
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "Horror", body["genre"])
	assert.EqualValues(t, 4, body["iterations"])
}

func TestStoryScreen_DraftFilenamesFollowPosition(t *testing.T) {
	f := newFixture(t, genapi.VariantMulti)
	img := base64.StdEncoding.EncodeToString(genapi.SampleJPEG())
	voice := base64.StdEncoding.EncodeToString(genapi.SampleWAV())
	// no iteration field: both drafts decode as iteration 0
	f.mock.SetReply(genapi.EndpointContent, genapi.DraftsReply([]genapi.Draft{
		{Story: "first", ImageURL: img, VoiceData: voice},
		{Story: "second", ImageURL: img},
	}))
	s := f.story(t)

	require.NoError(t, s.Submit(context.Background(), StoryInput{Prompt: "twins"}))
	v := s.View()
	require.Equal(t, StateSuccess, v.State)
	require.Len(t, v.Drafts, 2)
	assert.Zero(t, v.Drafts[0].Iteration)
	assert.Zero(t, v.Drafts[1].Iteration)
	assert.Equal(t, "draft_1_image.jpg", v.Drafts[0].Image.Filename)
	assert.Equal(t, "draft_1_voice.wav", v.Drafts[0].Voice.Filename)
	assert.Equal(t, "draft_2_image.jpg", v.Drafts[1].Image.Filename)
}

func TestResubmitAfterFailure(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	f.mock.QueueReply(genapi.EndpointVoice, genapi.ErrorReply(http.StatusServiceUnavailable, "model is warming up"))
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	err := s.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, StateFailure, s.State())
	assert.Equal(t, "model is warming up", s.View().Error)
	assert.Zero(t, f.live())

	// the queued failure is consumed; the default reply answers the retry
	require.NoError(t, s.Submit(context.Background(), "hello"))
	v := s.View()
	assert.Equal(t, StateSuccess, v.State)
	assert.Empty(t, v.Error)
	require.NotNil(t, v.Media)
	assert.Equal(t, "audio/wav", v.Media.MimeType)
	assert.Equal(t, 1, f.live())
	assert.Equal(t, 2, f.mock.RequestCount(genapi.EndpointVoice))
}

func TestStoryScreen_SingleVideo(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	s := f.story(t)

	require.NoError(t, s.Submit(context.Background(), StoryInput{Prompt: "dragons"}))

	want := View{
		Screen: StoryScreenName,
		State:  StateSuccess,
		Seq:    1,
		Media: &MediaRef{
			MimeType: VideoType,
			Kind:     media.KindVideo,
			Size:     len(genapi.SampleMP4()),
			Filename: VideoFilename,
		},
	}
	if diff := cmp.Diff(want, s.View(), ignoreBuffers); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}

	var body genapi.ContentRequest
	require.NoError(t, json.Unmarshal(f.mock.Requests()[0].Body, &body))
	assert.Equal(t, genapi.GenreAdventure, body.Genre)
	assert.Equal(t, genapi.DefaultIterations, body.Iterations)
}

func TestStoryScreen_DecodeFailureReleasesEverything(t *testing.T) {
	f := newFixture(t, genapi.VariantMulti)
	drafts := genapi.SampleDrafts(3)
	drafts[2].VoiceData = "@@not-base64@@"
	f.mock.SetReply(genapi.EndpointContent, genapi.DraftsReply(drafts))
	s := f.story(t)

	err := s.Submit(context.Background(), StoryInput{Prompt: "p"})
	require.ErrorIs(t, err, media.ErrInvalidBase64)

	v := s.View()
	assert.Equal(t, StateFailure, v.State)
	assert.Equal(t, MsgInvalidMedia, v.Error)
	assert.Empty(t, v.Drafts)
	assert.Zero(t, f.live())
}

func TestStoryScreen_RequiresAuthorizedSession(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)

	_, err := NewStoryScreen(nil, nil, f.client, f.decoder, nil, StoryOptions{})
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = NewStoryScreen(auth.NewSession("", ""), nil, f.client, f.decoder, nil, StoryOptions{})
	require.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Equal(t, MsgLoginRequired, Message(err))
}

func TestStoryScreen_TokenProvider(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	var calls int
	tokens := auth.TokenFunc(func(context.Context) (string, error) {
		calls++
		return fmt.Sprintf("rotated-%d", calls), nil
	})
	s, err := NewStoryScreen(auth.NewSession("ada", "tok-123"), tokens, f.client, f.decoder, f.rec, StoryOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Submit(context.Background(), StoryInput{Prompt: "first"}))
	require.NoError(t, s.Submit(context.Background(), StoryInput{Prompt: "second"}))

	reqs := f.mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer rotated-1", reqs[0].Authorization)
	assert.Equal(t, "Bearer rotated-2", reqs[1].Authorization)
}

func TestStoryScreen_TokenProviderFailure(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	errExpired := errors.New("token expired")
	tokens := auth.TokenFunc(func(context.Context) (string, error) { return "", errExpired })
	s, err := NewStoryScreen(auth.NewSession("ada", "tok-123"), tokens, f.client, f.decoder, f.rec, StoryOptions{})
	require.NoError(t, err)

	err = s.Submit(context.Background(), StoryInput{Prompt: "a haunted pier"})
	require.ErrorIs(t, err, errExpired)

	v := s.View()
	assert.Equal(t, StateFailure, v.State)
	assert.NotEmpty(t, v.Error)
	assert.Nil(t, v.Media)
	assert.Equal(t, []State{StateSubmitting, StateFailure}, f.rec.States())
	assert.Zero(t, f.mock.RequestCount(genapi.EndpointContent))
}

func TestCloseReleasesMedia(t *testing.T) {
	f := newFixture(t, genapi.VariantMulti)
	f.mock.SetReply(genapi.EndpointContent, genapi.DraftsReply(genapi.SampleDrafts(4)))
	s := f.story(t)

	require.NoError(t, s.Submit(context.Background(), StoryInput{Prompt: "p"}))
	require.Equal(t, 5, f.live())
	refs := s.View().Refs()

	require.NoError(t, s.Close())
	assert.Zero(t, f.live())
	assert.Zero(t, s.Live())
	for _, r := range refs {
		_, ok := f.decoder.Registry().Lookup(r.Handle)
		assert.False(t, ok)
	}

	require.ErrorIs(t, s.Submit(context.Background(), StoryInput{Prompt: "again"}), ErrClosed)
	require.NoError(t, s.Close())
}

func TestReset(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	require.NoError(t, s.Submit(context.Background(), "hello"))
	require.NoError(t, s.Reset())
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.View().Media)
	assert.Zero(t, f.live())
}

// blockingVoice ignores cancellation so a result can arrive after the screen moved on.
type blockingVoice struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingVoice) GenerateVoice(context.Context, genapi.VoiceRequest) (*genapi.VoiceResult, error) {
	close(b.started)
	<-b.release
	return &genapi.VoiceResult{
		AudioData:   base64.StdEncoding.EncodeToString(genapi.SampleWAV()),
		ContentType: "audio/wav",
	}, nil
}

func TestCancelDropsLateResponse(t *testing.T) {
	gen := &blockingVoice{started: make(chan struct{}), release: make(chan struct{})}
	decoder := media.NewDecoder(media.NewRegistry())
	rec := &recorder{}
	s := NewVoiceScreen(gen, decoder, rec)

	stale := metrics.StaleDropCounter(VoiceScreenName)
	before := testutil.ToFloat64(stale)

	done, err := s.Start(context.Background(), "hello")
	require.NoError(t, err)
	<-gen.started

	assert.True(t, s.Cancel())
	assert.False(t, s.Cancel())
	assert.Equal(t, StateIdle, s.State())

	close(gen.release)
	err = <-done
	require.ErrorIs(t, err, ErrSuperseded)

	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.View().Media)
	assert.Zero(t, decoder.Registry().Live(), "late media must be released")
	assert.Equal(t, before+1, testutil.ToFloat64(stale))
	assert.Equal(t, []State{StateSubmitting, StateIdle}, rec.States())

	// The screen stays usable.
	gen2 := &blockingVoice{started: make(chan struct{}), release: make(chan struct{})}
	close(gen2.release)
	s.client = gen2
	require.NoError(t, s.Submit(context.Background(), "again"))
	assert.Equal(t, 1, decoder.Registry().Live())
}

func TestCloseDuringSubmissionDropsResult(t *testing.T) {
	gen := &blockingVoice{started: make(chan struct{}), release: make(chan struct{})}
	decoder := media.NewDecoder(media.NewRegistry())
	s := NewVoiceScreen(gen, decoder, nil)

	done, err := s.Start(context.Background(), "hello")
	require.NoError(t, err)
	<-gen.started

	require.NoError(t, s.Close())
	close(gen.release)
	require.ErrorIs(t, <-done, ErrSuperseded)
	assert.Zero(t, decoder.Registry().Live())
}

func TestCallerContextCancelIsConnectionFailure(t *testing.T) {
	f := newFixture(t, genapi.VariantSingle)
	release := f.mock.Hold(genapi.EndpointVoice)
	defer release()
	s := NewVoiceScreen(f.client, f.decoder, f.rec)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := s.Start(ctx, "hello")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.mock.RequestCount(genapi.EndpointVoice) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	err = <-done
	require.ErrorIs(t, err, genapi.ErrConnection)
	assert.Equal(t, StateFailure, s.State())
	assert.Equal(t, genapi.MsgConnectionFailed, s.View().Error)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{genapi.NewValidationError("op", genapi.MsgEmptyPrompt), genapi.MsgEmptyPrompt},
		{&genapi.Error{Kind: genapi.KindServerReported, Message: "X"}, "X"},
		{&media.DecodeError{Sentinel: media.ErrUnsupportedType}, MsgUnsupportedMedia},
		{ErrBusy, MsgBusy},
		{ErrClosed, MsgClosed},
		{auth.ErrUnauthorized, MsgLoginRequired},
		{errors.New("disk full"), MsgUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.err))
	}
}

func TestState_Text(t *testing.T) {
	var st State
	require.NoError(t, st.UnmarshalText([]byte("submitting")))
	assert.Equal(t, StateSubmitting, st)
	assert.Error(t, st.UnmarshalText([]byte("done")))

	b, err := StateFailure.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failure", string(b))
}
