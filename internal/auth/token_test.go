// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractToken_PriorityOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/media/x", nil)
	r.Header.Set("Authorization", "Bearer bearer-token ")
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-token"})

	if got := ExtractToken(r); got != "bearer-token" {
		t.Fatalf("ExtractToken() = %q, want %q", got, "bearer-token")
	}
}

func TestExtractToken_CookieFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/media/x", nil)
	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-token"})

	if got := ExtractToken(r); got != "session-token" {
		t.Fatalf("ExtractToken() = %q, want %q", got, "session-token")
	}
}

func TestExtractToken_QueryIgnored(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/media/x?token=query-token", nil)
	if got := ExtractToken(r); got != "" {
		t.Fatalf("ExtractToken() = %q, want empty", got)
	}
}

func TestAuthorizeToken(t *testing.T) {
	if AuthorizeToken("secret", "secret") != true {
		t.Fatal("AuthorizeToken should accept exact match")
	}
	if AuthorizeToken("secret", "other") != false {
		t.Fatal("AuthorizeToken should reject mismatch")
	}
	if AuthorizeToken("", "secret") != false {
		t.Fatal("AuthorizeToken should reject empty got token")
	}
	if AuthorizeToken("secret", "") != false {
		t.Fatal("AuthorizeToken should reject empty expected token")
	}
}

func TestAuthorizeRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/api/screens/voice", nil)
	r.Header.Set("Authorization", "Bearer secret")
	if !AuthorizeRequest(r, "secret") {
		t.Fatal("AuthorizeRequest should accept matching bearer token")
	}
	if AuthorizeRequest(nil, "secret") {
		t.Fatal("AuthorizeRequest should reject nil request")
	}
}

func TestSetAuthHeader(t *testing.T) {
	h := http.Header{}
	SetAuthHeader(h, "")
	if h.Get("Authorization") != "" {
		t.Fatal("empty token must not set Authorization")
	}
	SetAuthHeader(h, " abc ")
	if got := h.Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("Authorization = %q, want %q", got, "Bearer abc")
	}
}
