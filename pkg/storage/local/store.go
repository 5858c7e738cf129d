// Package local stores media files on a filesystem rooted at a directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/angelmondragon/bomcatalog-backend/pkg/storage"
)

type Store struct {
	fs   afero.Fs
	root string
}

var _ storage.Store = (*Store)(nil)

// New roots a store at root on fs, creating the directory when missing.
func New(fs afero.Fs, root string) (*Store, error) {
	if fs == nil {
		return nil, errors.New("filesystem is required")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	return &Store{fs: fs, root: filepath.Clean(root)}, nil
}

// NewOS roots a store on the host filesystem.
func NewOS(root string) (*Store, error) {
	return New(afero.NewOsFs(), root)
}

func (s *Store) Write(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := storage.BuildKey("", suggestedName)
	full := s.fullPath(key)
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %q: %w", key, err)
	}

	f, err := s.fs.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("write %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("close %q: %w", key, err)
	}
	return key, nil
}

func (s *Store) Delete(ctx context.Context, storedPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := storage.CleanKey(storedPath)
	if err != nil {
		return err
	}
	full := s.fullPath(key)
	if err := s.fs.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.ErrNotExist
		}
		return fmt.Errorf("remove %q: %w", key, err)
	}
	// The per-upload directory only ever holds one file.
	_ = s.fs.Remove(filepath.Dir(full))
	return nil
}

func (s *Store) List(ctx context.Context) ([]storage.Object, error) {
	var out []storage.Object
	err := afero.Walk(s.fs, s.root, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, storage.Object{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk storage root: %w", err)
	}
	return out, nil
}

func (s *Store) fullPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
