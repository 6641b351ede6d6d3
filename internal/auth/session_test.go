// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{name: "nil session", session: nil, want: false},
		{name: "empty session", session: NewSession("", "  "), want: false},
		{name: "user only", session: NewSession("dad", ""), want: true},
		{name: "token only", session: NewSession("", "tok"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorized(tt.session))
		})
	}
}

func TestNewSession_IDDerivation(t *testing.T) {
	assert.Equal(t, "dad", NewSession("dad", "tok").ID)

	s := NewSession("", "tok")
	assert.True(t, strings.HasPrefix(s.ID, "t_"))
	assert.Len(t, s.ID, 18)
	assert.Equal(t, s.ID, NewSession("", "tok").ID, "ID must be stable for the same token")
	assert.NotEqual(t, s.ID, NewSession("", "other").ID)
}

func TestSessionAuthToken(t *testing.T) {
	tok, err := NewSession("dad", "abc").AuthToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	var missing *Session
	_, err = missing.AuthToken(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenProviders(t *testing.T) {
	var p TokenProvider = StaticToken("static")
	tok, err := p.AuthToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static", tok)

	p = TokenFunc(func(context.Context) (string, error) { return "fn", nil })
	tok, err = p.AuthToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fn", tok)
}
