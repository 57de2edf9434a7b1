package uploads

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Dir stores uploads on the local filesystem under a fixed base directory.
type Dir struct {
	base      string
	urlPrefix string
}

var _ Store = (*Dir)(nil)

// NewDir creates base if needed and returns a Dir rooted there. Files are
// addressed publicly as urlPrefix + rel.
func NewDir(base, urlPrefix string) (*Dir, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &Dir{base: abs, urlPrefix: strings.TrimRight(urlPrefix, "/") + "/"}, nil
}

// Base returns the absolute uploads root.
func (d *Dir) Base() string {
	return d.base
}

func (d *Dir) Save(_ context.Context, rel string, data []byte, _ string) error {
	target, err := Resolve(d.base, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return err
	}
	return f.Close()
}

func (d *Dir) Delete(_ context.Context, rel string) error {
	target, err := Resolve(d.base, rel)
	if err != nil {
		return err
	}
	err = os.Remove(target)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotExist
	}
	return err
}

func (d *Dir) URL(rel string) string {
	return d.urlPrefix + rel
}

// Handler serves stored files. The request path, after the caller has
// stripped its mount prefix, is treated as an upload path. Directories
// are never listed.
func (d *Dir) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target, err := Resolve(d.base, strings.TrimPrefix(r.URL.Path, "/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, target)
	})
}
