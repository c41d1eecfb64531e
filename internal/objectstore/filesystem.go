package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/residencia-api/internal/logger"
)

// FileSystem stores blobs as files below a root directory
type FileSystem struct {
	root string
	log  *log.Logger
}

// NewFileSystem creates the root directory if needed
func NewFileSystem(root string) (*FileSystem, error) {
	if root == "" {
		root = "./uploads"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	l := logger.ObjectStore(DriverFilesystem)
	l.Info("filesystem object store ready", "root", abs)
	return &FileSystem{root: abs, log: l}, nil
}

// resolve maps a key onto a path inside root, rejecting keys that escape it
func (s *FileSystem) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if key == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FileSystem) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("failed to create object directory", "key", key, "error", err)
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		s.log.Error("failed to write object", "key", key, "error", err)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit object: %w", err)
	}

	s.log.Debug("object stored", "key", key, "size", written, "content_type", contentType)
	return nil
}

func (s *FileSystem) Remove(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("object already absent", "key", key)
			return nil
		}
		s.log.Error("failed to remove object", "key", key, "error", err)
		return fmt.Errorf("failed to remove object: %w", err)
	}
	s.log.Debug("object removed", "key", key)
	return nil
}

func (s *FileSystem) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}
