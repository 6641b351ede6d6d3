// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package screen

import (
	"github.com/ManuGH/reelgen/internal/media"
)

// MediaRef points at decoded media by handle. Bytes shares the decoded buffer
// and stays readable after the handle is revoked.
type MediaRef struct {
	Handle   media.Handle `json:"handle"`
	MimeType string       `json:"mime_type"`
	Kind     string       `json:"kind"`
	Size     int          `json:"size"`
	Filename string       `json:"filename"`
	Bytes    []byte       `json:"-"`
}

// DraftView is one story draft as shown to the user.
type DraftView struct {
	Iteration     int       `json:"iteration"`
	Story         string    `json:"story"`
	EnhancedStory string    `json:"enhanced_story,omitempty"`
	Image         *MediaRef `json:"image,omitempty"`
	Voice         *MediaRef `json:"voice,omitempty"`
}

// View is everything a presenter needs to render a screen.
// Error and media are never set together.
type View struct {
	Screen string      `json:"screen"`
	State  State       `json:"state"`
	Seq    uint64      `json:"seq"`
	Error  string      `json:"error,omitempty"`
	Media  *MediaRef   `json:"media,omitempty"`
	Drafts []DraftView `json:"drafts,omitempty"`
}

// Refs lists every media reference in the view.
func (v View) Refs() []*MediaRef {
	var refs []*MediaRef
	if v.Media != nil {
		refs = append(refs, v.Media)
	}
	for _, d := range v.Drafts {
		if d.Image != nil {
			refs = append(refs, d.Image)
		}
		if d.Voice != nil {
			refs = append(refs, d.Voice)
		}
	}
	return refs
}

func (v View) clone() View {
	if v.Media != nil {
		m := *v.Media
		v.Media = &m
	}
	if v.Drafts != nil {
		drafts := make([]DraftView, len(v.Drafts))
		for i, d := range v.Drafts {
			if d.Image != nil {
				img := *d.Image
				d.Image = &img
			}
			if d.Voice != nil {
				voice := *d.Voice
				d.Voice = &voice
			}
			drafts[i] = d
		}
		v.Drafts = drafts
	}
	return v
}

// Presenter renders views. Present is called with the screen lock held, in
// transition order, and must not call back into the screen.
type Presenter interface {
	Present(View)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(View)

// Present implements Presenter.
func (f PresenterFunc) Present(v View) { f(v) }

// Presenters fans a view out to several presenters in order.
type Presenters []Presenter

// Present implements Presenter.
func (ps Presenters) Present(v View) {
	for _, p := range ps {
		if p != nil {
			p.Present(v)
		}
	}
}

func refOf(m *media.DecodedMedia, filename string) *MediaRef {
	if filename == "" {
		filename = "media" + media.Extension(m.MimeType)
	}
	return &MediaRef{
		Handle:   m.Handle,
		MimeType: m.MimeType,
		Kind:     m.Kind(),
		Size:     m.Size(),
		Filename: filename,
		Bytes:    m.Bytes,
	}
}
