// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth holds the session predicate that gates screens and the token
// capability screens use to authenticate generation requests.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrUnauthorized is returned when a screen is opened without an authorized session.
var ErrUnauthorized = errors.New("auth: session is not authorized")

// Session represents the signed-in caller as seen by the client.
type Session struct {
	// ID is stable per user. It is the User when set, otherwise a hash of the token.
	ID string

	// User is the human-readable user name, if known.
	User string

	// AccessToken is the bearer token sent to generation endpoints.
	AccessToken string
}

// NewSession creates a Session from a user name and access token.
func NewSession(user, token string) *Session {
	user = strings.TrimSpace(user)
	token = strings.TrimSpace(token)

	id := user
	if id == "" && token != "" {
		// "t_" prefix to distinguish from potential username collisions
		hash := sha256.Sum256([]byte(token))
		id = "t_" + hex.EncodeToString(hash[:])[:16]
	}

	return &Session{
		ID:          id,
		User:        user,
		AccessToken: token,
	}
}

// IsAuthorized reports whether s identifies a user. Consumers redirect to the
// login entry point when it returns false.
func IsAuthorized(s *Session) bool {
	if s == nil {
		return false
	}
	return s.User != "" || s.AccessToken != ""
}

// AuthToken implements TokenProvider.
func (s *Session) AuthToken(context.Context) (string, error) {
	if !IsAuthorized(s) {
		return "", ErrUnauthorized
	}
	return s.AccessToken, nil
}

// TokenProvider yields the bearer token for the next request.
type TokenProvider interface {
	AuthToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider returning a fixed token.
type StaticToken string

// AuthToken implements TokenProvider.
func (t StaticToken) AuthToken(context.Context) (string, error) {
	return string(t), nil
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

// AuthToken implements TokenProvider.
func (f TokenFunc) AuthToken(ctx context.Context) (string, error) {
	return f(ctx)
}
