// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package present renders screen views for a terminal and saves decoded media to disk.
package present

import (
	"fmt"
	"io"
	"sync"

	"github.com/ManuGH/reelgen/internal/screen"
)

// Console prints views as plain text. Stories are written verbatim.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a console presenter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Present implements screen.Presenter.
func (c *Console) Present(v screen.View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch v.State {
	case screen.StateSubmitting:
		c.printf("Generating %s...\n", v.Screen)
	case screen.StateFailure:
		c.printf("Error: %s\n", v.Error)
	case screen.StateSuccess:
		if v.Media != nil {
			c.printf("%s ready: %s (%s, %d bytes)\n", v.Media.Kind, v.Media.Handle, v.Media.MimeType, v.Media.Size)
		}
		for _, d := range v.Drafts {
			c.printf("\n--- Draft %d ---\n%s\n", d.Iteration, d.Story)
			if d.EnhancedStory != "" {
				c.printf("\nEnhanced:\n%s\n", d.EnhancedStory)
			}
			if d.Image != nil {
				c.printf("image: %s (%s)\n", d.Image.Handle, d.Image.MimeType)
			}
			if d.Voice != nil {
				c.printf("voice: %s (%s)\n", d.Voice.Handle, d.Voice.MimeType)
			}
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}
