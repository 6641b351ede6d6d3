// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/media"
	"github.com/ManuGH/reelgen/internal/screen"
)

// maxBodyBytes bounds submission bodies.
const maxBodyBytes = 1 << 20

type voiceBody struct {
	Text string `json:"text"`
}

type storyBody struct {
	Prompt     string `json:"prompt"`
	Genre      string `json:"genre,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

// handleMedia serves the bytes behind a live handle. Range requests are
// supported so players can seek.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := s.registry.Lookup(media.HandleFromID(chi.URLParam(r, "id")))
	if !ok {
		writeNotFound(w)
		return
	}
	w.Header().Set("Content-Type", m.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(m.Bytes))
}

func (s *Server) handleGetScreen(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.lookupScreen(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sc.View())
}

func (s *Server) handleResetScreen(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.lookupScreen(w, r)
	if !ok {
		return
	}
	if err := sc.Reset(); err != nil {
		s.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc.View())
}

func (s *Server) handleCancelScreen(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.lookupScreen(w, r)
	if !ok {
		return
	}
	if !sc.Cancel() {
		writeError(w, http.StatusConflict, "not_pending", "Nothing to cancel")
		return
	}
	writeJSON(w, http.StatusOK, sc.View())
}

func (s *Server) handleSubmitVoice(w http.ResponseWriter, r *http.Request) {
	var body voiceBody
	if !decodeBody(w, r, &body) {
		return
	}
	done, err := s.voice.Start(submissionContext(r), body.Text)
	s.respondSubmit(w, r, s.voice, done, err)
}

func (s *Server) handleSubmitStory(w http.ResponseWriter, r *http.Request) {
	if s.story == nil {
		_, loginPath := s.authSettings()
		s.unauthorized(w, r, loginPath)
		return
	}
	var body storyBody
	if !decodeBody(w, r, &body) {
		return
	}
	in := screen.StoryInput{Prompt: body.Prompt, Iterations: body.Iterations}
	if body.Genre != "" {
		g, err := genapi.ParseGenre(body.Genre)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_genre", err.Error())
			return
		}
		in.Genre = g
	}
	if in.Iterations < 0 || in.Iterations > genapi.MaxIterations {
		writeError(w, http.StatusBadRequest, "invalid_iterations",
			fmt.Sprintf("iterations must be between 1 and %d", genapi.MaxIterations))
		return
	}
	done, err := s.story.Start(submissionContext(r), in)
	s.respondSubmit(w, r, s.story, done, err)
}

// respondSubmit answers 202 with the Submitting view, or waits for the final
// view when the client asks with ?wait=true.
func (s *Server) respondSubmit(w http.ResponseWriter, r *http.Request, sc viewer, done <-chan error, err error) {
	if err != nil {
		if errors.Is(err, genapi.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, sc.View())
			return
		}
		s.writeSubmitError(w, err)
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		writeJSON(w, http.StatusAccepted, sc.View())
		return
	}
	select {
	case <-done:
		writeJSON(w, http.StatusOK, sc.View())
	case <-r.Context().Done():
		// the submission keeps running; the client can poll the view
	}
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, screen.ErrBusy):
		writeError(w, http.StatusConflict, "busy", screen.Message(err))
	case errors.Is(err, screen.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "closed", screen.Message(err))
	default:
		s.logger.Error().Err(err).Str(log.FieldEvent, "api.submit_failed").Msg("submission rejected")
		writeError(w, http.StatusInternalServerError, "internal", screen.Message(err))
	}
}

func (s *Server) lookupScreen(w http.ResponseWriter, r *http.Request) (viewer, bool) {
	name := chi.URLParam(r, "name")
	if name == screen.StoryScreenName && s.story == nil {
		_, loginPath := s.authSettings()
		s.unauthorized(w, r, loginPath)
		return nil, false
	}
	sc, ok := s.screen(name)
	if !ok {
		writeNotFound(w)
		return nil, false
	}
	return sc, true
}

// submissionContext keeps the request's values (request ID, trace) but not its
// cancellation: a submission outlives the POST that started it.
func submissionContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}
