package resource

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const uriScheme = "blob:"

// Blob is the in-memory payload a local handle points at.
type Blob struct {
	Data     []byte
	MimeType string
}

// Registry hands out process-local URIs (object URLs) for in-memory blobs.
// A URI keeps its blob alive until Revoke is called; every Create must be paired with one Revoke.
type Registry struct {
	origin string

	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewRegistry returns an empty registry. origin is embedded in the URIs it creates.
func NewRegistry(origin string) *Registry {
	if origin == "" {
		origin = "masomo"
	}
	return &Registry{
		origin: origin,
		blobs:  make(map[string]Blob),
	}
}

// Create registers data and returns a new URI for it.
func (r *Registry) Create(data []byte, mimeType string) string {
	uri := uriScheme + r.origin + "/" + uuid.New().String()
	r.mu.Lock()
	r.blobs[uri] = Blob{Data: data, MimeType: mimeType}
	r.mu.Unlock()
	return uri
}

// Revoke releases the blob behind uri. It returns false if uri was not live.
func (r *Registry) Revoke(uri string) bool {
	if !strings.HasPrefix(uri, uriScheme) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[uri]; !ok {
		return false
	}
	delete(r.blobs, uri)
	return true
}

// Resolve dereferences a live uri.
func (r *Registry) Resolve(uri string) (Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[uri]
	return b, ok
}

// Open returns a reader over the blob behind a live uri.
func (r *Registry) Open(uri string) (io.Reader, bool) {
	b, ok := r.Resolve(uri)
	if !ok {
		return nil, false
	}
	return bytes.NewReader(b.Data), true
}

// Live returns the number of unreleased URIs.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
