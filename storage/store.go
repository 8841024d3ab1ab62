// Package storage defines where the resource service keeps resource content.
package storage

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrInvalidName = errors.New("invalid resource name")
)

// sniffLen is the number of leading bytes http.DetectContentType looks at.
const sniffLen = 512

type (
	// Info describes a stored resource.
	Info struct {
		Name     string    `json:"name"`
		Size     int64     `json:"size"`
		MimeType string    `json:"mime_type"`
		ModTime  time.Time `json:"modified_at"`
	}

	// Store abstracts resource storage backends. Names are plain file names (see core.IsResourceName).
	Store interface {
		Stat(ctx context.Context, name string) (Info, error)
		// Open returns the content of name; the caller must close it.
		Open(ctx context.Context, name string) (io.ReadSeekCloser, Info, error)
		// Put creates or replaces name with the content of r.
		Put(ctx context.Context, name string, r io.Reader) (Info, error)
		Delete(ctx context.Context, name string) error
		// List returns all resources sorted by name.
		List(ctx context.Context) ([]Info, error)
	}
)

// DetectMimeType derives the content type from the name's extension, falling back to sniffing head.
func DetectMimeType(name string, head []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return http.DetectContentType(head)
}
