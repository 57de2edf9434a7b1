// Package uploads stores admin-uploaded images and enforces that every
// client-supplied path stays inside the uploads root.
package uploads

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath is returned for paths that are empty, absolute, or
	// escape the uploads root.
	ErrInvalidPath = errors.New("invalid upload path")
	// ErrNotExist is returned when deleting an upload that is not there.
	ErrNotExist = errors.New("upload does not exist")
	// ErrExists is returned when saving over an existing upload.
	ErrExists = errors.New("upload already exists")
)

// Store persists uploaded files addressed by a slash-separated path
// relative to the uploads root.
type Store interface {
	Save(ctx context.Context, rel string, data []byte, contentType string) error
	Delete(ctx context.Context, rel string) error
	URL(rel string) string
}

// CleanRel validates a client-supplied relative path and returns its
// canonical slash-separated form. Any ".." segment is rejected outright,
// before cleaning, so "a/../b" is refused rather than rewritten.
func CleanRel(rel string) (string, error) {
	if rel == "" || strings.ContainsRune(rel, 0) {
		return "", ErrInvalidPath
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	cleaned := path.Clean(rel)
	if cleaned == "." || cleaned == "" {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// Resolve maps rel onto base and returns the absolute filesystem path.
// The result is guaranteed to be strictly inside base.
func Resolve(base, rel string) (string, error) {
	cleaned, err := CleanRel(rel)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	target := filepath.Join(absBase, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return target, nil
}
