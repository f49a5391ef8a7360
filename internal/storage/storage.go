// Package storage archives analysed media as evidence next to its report.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidName = errors.New("invalid object name")
	ErrNotFound    = errors.New("object not found")
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
	Fingerprint string
}

type Storage interface {
	Save(ctx context.Context, data []byte, info FileInfo) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// ObjectName builds "<fingerprint>-<uuid><ext>" so archived files group by
// content while staying unique.
func ObjectName(info FileInfo) string {
	ext := strings.ToLower(filepath.Ext(info.Filename))
	prefix := info.Fingerprint
	if prefix == "" {
		prefix = "unknown"
	}
	return prefix + "-" + uuid.New().String() + ext
}

// cleanName rejects names that would leave the archive root.
func cleanName(name string) (string, error) {
	clean := filepath.Clean(name)
	if name == "" || clean == "." || filepath.IsAbs(clean) || strings.Contains(clean, "..") || strings.ContainsAny(clean, `/\`) {
		return "", ErrInvalidName
	}
	return clean, nil
}
