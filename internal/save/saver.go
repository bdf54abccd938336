// Package save writes exported content to its destination.
package save

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmission indicates the content could not be saved.
var ErrEmission = errors.New("emission failed")

// Saver persists one exported file.
type Saver interface {
	Save(ctx context.Context, content []byte, filename, mimeType string) error
}

// DirSaver writes files into a directory on the local filesystem.
type DirSaver struct {
	dir string
}

// NewDirSaver creates a saver writing into dir. Empty dir means the
// current working directory.
func NewDirSaver(dir string) *DirSaver {
	if dir == "" {
		dir = "."
	}
	return &DirSaver{dir: dir}
}

// Dir returns the output directory.
func (s *DirSaver) Dir() string {
	return s.dir
}

// Save writes content to dir/filename. Characters that would escape the
// directory or are invalid on common filesystems are replaced.
func (s *DirSaver) Save(ctx context.Context, content []byte, filename, _ string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrEmission, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create output directory: %w", ErrEmission, err)
	}

	path := filepath.Join(s.dir, SanitizeFilename(filename))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("%w: write file: %w", ErrEmission, err)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	"*", "-",
	"?", "-",
	"\"", "-",
	"<", "-",
	">", "-",
	"|", "-",
)

// SanitizeFilename replaces path separators, reserved characters and
// control characters. An empty result becomes "conversation".
func SanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '-'
		}
		return r
	}, name)

	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "conversation"
	}
	return name
}
