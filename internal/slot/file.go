package slot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileSlot keeps the value in <dir>/<key>.json
type FileSlot struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger
}

// NewFileSlot creates a file-backed slot. The directory is created if missing.
func NewFileSlot(fsys afero.Fs, dir, key string, logger *zap.Logger) (*FileSlot, error) {
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	return &FileSlot{
		fs:     fsys,
		path:   filepath.Join(dir, key+".json"),
		logger: logger,
	}, nil
}

func (s *FileSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return data, nil
}

// Write replaces the file through a temp file and rename so a crash never
// leaves a half-written collection behind.
func (s *FileSlot) Write(ctx context.Context, data []byte) error {
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.logger.Error("failed to replace slot file",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSlot) Describe() string {
	return "file:" + s.path
}
