// Package storage saves uploaded images and deletes them by URL.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Storage interface {
	// Save stores r under a fresh key derived from name and returns its public URL.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Delete removes the object at url. Unknown URLs are ignored.
	Delete(ctx context.Context, url string) error
}

// ObjectKey is a collision-free key that keeps the extension of name.
func ObjectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// Raster formats only: stored files are served from the shop's own origin
// and svg can carry script.
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// uploadExts are the files admins may upload through /upload.
var uploadExts = map[string]bool{".pdf": true}

func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// IsUploadable reports whether name may be stored through the generic upload.
func IsUploadable(name string) bool {
	return IsImage(name) || uploadExts[strings.ToLower(filepath.Ext(name))]
}
