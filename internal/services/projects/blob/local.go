// Package blob implements the projects blob boundary on a local directory.
// Real deployments point the port at object storage; this keeps dev and
// tests self-contained
package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "darkroom/internal/platform/errors"
	"darkroom/internal/services/projects/domain"
)

// LocalDir stores blobs as plain files under a root directory
type LocalDir struct {
	root string
}

// NewLocalDir builds a store rooted at dir, creating it if needed
func NewLocalDir(dir string) (*LocalDir, error) {
	if dir == "" {
		return nil, perr.InvalidArgf("blob dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "create blob dir %s", dir)
	}
	return &LocalDir{root: dir}, nil
}

var _ domain.BlobPort = (*LocalDir)(nil)

// Put writes body under key and returns the absolute location
func (l *LocalDir) Put(_ context.Context, key string, body io.Reader) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", perr.InvalidArgf("bad blob key")
	}
	path := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "blob mkdir")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "blob create")
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "blob write")
	}
	if err := f.Close(); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "blob close")
	}
	return path, nil
}

// Delete removes a stored blob. Missing files are fine
func (l *LocalDir) Delete(_ context.Context, location string) error {
	if location == "" {
		return nil
	}
	// refuse to touch anything outside the root
	abs, err := filepath.Abs(location)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "blob path")
	}
	rootAbs, err := filepath.Abs(l.root)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "blob root")
	}
	if !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return perr.InvalidArgf("blob location outside root")
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "blob delete")
	}
	return nil
}
