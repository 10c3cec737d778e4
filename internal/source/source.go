// Package source fetches input files from local paths or URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// ErrTooLarge is returned when a source exceeds the configured byte limit.
var ErrTooLarge = errors.New("source too large")

// Reader downloads sources through afs, so any scheme afs knows (file,
// http, https, mem, ...) can be loaded.
type Reader struct {
	fs       afs.Service
	maxBytes int64
}

// NewReader returns a Reader. maxBytes <= 0 means unlimited.
func NewReader(maxBytes int64) *Reader {
	return &Reader{fs: afs.New(), maxBytes: maxBytes}
}

// Read fetches location and returns its bytes and base name. The name keeps
// the suffix so the loader can pick a format.
func (r *Reader) Read(ctx context.Context, location string) ([]byte, string, error) {
	URL, err := normalize(location)
	if err != nil {
		return nil, "", err
	}
	ok, err := r.fs.Exists(ctx, URL)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", location, err)
	}
	if !ok {
		return nil, "", fmt.Errorf("source not found: %s", location)
	}
	rc, err := r.fs.OpenURL(ctx, URL)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", location, err)
	}
	defer rc.Close()
	var src io.Reader = rc
	if r.maxBytes > 0 {
		// one byte past the limit is enough to tell an oversized source
		src = io.LimitReader(rc, r.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", location, err)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds limit of %d bytes", ErrTooLarge, location, r.maxBytes)
	}
	return data, Name(location), nil
}

// Read fetches location with no size limit.
func Read(ctx context.Context, location string) ([]byte, string, error) {
	return NewReader(0).Read(ctx, location)
}

// Name returns the base name of a path or URL without query or fragment.
func Name(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 && hasScheme(location) {
		location = location[:i]
	}
	if hasScheme(location) {
		return path.Base(location)
	}
	return filepath.Base(location)
}

// normalize turns local paths into absolute file paths and leaves URLs as is.
func normalize(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.New("empty source location")
	}
	if hasScheme(location) {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", location, err)
	}
	return abs, nil
}

func hasScheme(location string) bool {
	i := strings.Index(location, "://")
	return i > 0 && !strings.ContainsAny(location[:i], `/\`)
}
