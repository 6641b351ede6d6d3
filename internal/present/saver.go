// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package present

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	xglog "github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/screen"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// Saver writes every media reference of a successful view into a directory.
// Files are replaced atomically, so a reader never sees a partial download.
type Saver struct {
	dir    string
	logger zerolog.Logger
}

// NewSaver returns a saver for dir. The directory is created on first save.
func NewSaver(dir string) *Saver {
	return &Saver{dir: dir, logger: xglog.WithComponent("present")}
}

// Save writes the media of v and returns the written paths in view order.
func (s *Saver) Save(v screen.View) ([]string, error) {
	refs := v.Refs()
	if len(refs) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(refs))
	seen := make(map[string]int, len(refs))
	for _, ref := range refs {
		path := filepath.Join(s.dir, uniqueName(seen, filepath.Base(ref.Filename)))
		if err := writeAtomic(path, ref.Bytes); err != nil {
			return paths, err
		}
		s.logger.Info().
			Str(xglog.FieldEvent, "media.saved").
			Str(xglog.FieldScreen, v.Screen).
			Str(xglog.FieldMimeType, ref.MimeType).
			Int(xglog.FieldBytes, ref.Size).
			Str("path", path).
			Msg("media saved")
		paths = append(paths, path)
	}
	return paths, nil
}

// uniqueName suffixes repeated names within one save so no reference
// overwrites another.
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if n := seen[name]; n > 1 {
		ext := filepath.Ext(name)
		return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	return name
}

func writeAtomic(path string, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", path, err)
	}
	// Cleanup is a no-op once the file has been committed
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
