// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ManuGH/reelgen/internal/metrics"
)

// HandlePrefix marks ephemeral addressable handles.
const HandlePrefix = "blob:reelgen/"

// Handle is a process-local URL-like reference to decoded media.
type Handle string

// ID returns the opaque part of the handle, used as the preview server path segment.
func (h Handle) ID() string {
	return strings.TrimPrefix(string(h), HandlePrefix)
}

// HandleFromID rebuilds a handle from its opaque ID.
func HandleFromID(id string) Handle {
	return Handle(HandlePrefix + id)
}

// DecodedMedia is a decoded payload plus the handle it is reachable under.
// It stays addressable until Release is called.
type DecodedMedia struct {
	Bytes    []byte
	MimeType string
	Handle   Handle

	registry *Registry
	released atomic.Bool
}

// Kind reports whether the media is audio, image or video.
func (m *DecodedMedia) Kind() string { return Kind(m.MimeType) }

// Size is the decoded byte length.
func (m *DecodedMedia) Size() int { return len(m.Bytes) }

// Released reports whether the handle has been revoked.
func (m *DecodedMedia) Released() bool { return m.released.Load() }

// Release revokes the handle. Safe to call more than once and on nil.
func (m *DecodedMedia) Release() {
	if m == nil || !m.released.CompareAndSwap(false, true) {
		return
	}
	if m.registry != nil {
		m.registry.Revoke(m.Handle)
	}
}

// ReleaseAll releases every non-nil media in ms.
func ReleaseAll(ms ...*DecodedMedia) {
	for _, m := range ms {
		m.Release()
	}
}

// Registry maps live handles to decoded media.
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]*DecodedMedia
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Handle]*DecodedMedia)}
}

func (r *Registry) register(m *DecodedMedia) {
	h := Handle(HandlePrefix + uuid.NewString())

	r.mu.Lock()
	m.Handle = h
	m.registry = r
	r.entries[h] = m
	r.mu.Unlock()

	metrics.AddLiveHandles(1)
}

// Lookup returns the media behind a live handle.
func (r *Registry) Lookup(h Handle) (*DecodedMedia, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.entries[h]
	return m, ok
}

// Revoke removes a handle. It returns false when the handle was not live.
func (r *Registry) Revoke(h Handle) bool {
	r.mu.Lock()
	m, ok := r.entries[h]
	if ok {
		delete(r.entries, h)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	m.released.Store(true)
	metrics.AddLiveHandles(-1)
	metrics.IncRevocation()
	return true
}

// RevokeAll revokes every live handle and returns how many were revoked.
func (r *Registry) RevokeAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Handle]*DecodedMedia)
	r.mu.Unlock()

	for _, m := range entries {
		m.released.Store(true)
		metrics.IncRevocation()
	}
	metrics.AddLiveHandles(-len(entries))
	return len(entries)
}

// Live returns the number of handles not yet revoked.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
