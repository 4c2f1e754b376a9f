package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore writes attachments under a base directory and serves them from
// a base URL. Storage paths are relative to the base directory and use
// forward slashes regardless of platform.
type DiskStore struct {
	baseDir string
	baseURL string
}

func NewDiskStore(baseDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("blob.NewDiskStore: %w", err)
	}

	return &DiskStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put stores r under pathPrefix with a random name so uploads can never
// overwrite each other. The original extension is kept for content typing.
func (s *DiskStore) Put(_ context.Context, pathPrefix, fileName string, r io.Reader) (string, error) {
	name := uuid.New().String()
	if ext := path.Ext(fileName); ext != "" {
		name += ext
	}

	rel := path.Join(cleanPrefix(pathPrefix), name)
	abs := filepath.Join(s.baseDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("blob.DiskStore.Put: %w", err)
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blob.DiskStore.Put: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(abs)
		return "", fmt.Errorf("blob.DiskStore.Put: write: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("blob.DiskStore.Put: close: %w", err)
	}

	return rel, nil
}

func (s *DiskStore) URL(storagePath string) string {
	return s.baseURL + "/" + strings.TrimLeft(storagePath, "/")
}

// cleanPrefix strips traversal segments so a crafted prefix cannot escape
// the base directory.
func cleanPrefix(prefix string) string {
	cleaned := path.Clean("/" + prefix)
	return strings.TrimLeft(cleaned, "/")
}
