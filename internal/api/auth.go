// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strings"

	"github.com/ManuGH/reelgen/internal/auth"
	"github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/screen"
)

// requireToken guards a route group with the server token. Browsers are sent
// to the login path, API clients get a 401 body naming it.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, loginPath := s.authSettings()
		if token == "" || auth.AuthorizeRequest(r, token) {
			next.ServeHTTP(w, r)
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")
		logger.Warn().
			Str(log.FieldEvent, "auth.rejected").
			Str(log.FieldPath, r.URL.Path).
			Str(log.FieldRemoteAddr, r.RemoteAddr).
			Msg("unauthorized request")
		s.unauthorized(w, r, loginPath)
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, loginPath string) {
	if wantsHTML(r) {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusUnauthorized, errorBody{
		Error:   "unauthorized",
		Message: screen.MsgLoginRequired,
		Login:   loginPath,
	})
}

// wantsHTML reports whether the request comes from a browser navigation.
func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
