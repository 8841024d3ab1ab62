package resource

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type (
	// SaveRequest describes a downloaded blob, reachable through its local handle URI.
	SaveRequest struct {
		URI      string
		Name     string
		MimeType string
		Size     int64
	}

	// Saver initiates persisting a downloaded blob. The handle in SaveRequest is
	// released as soon as Save returns, so implementations must not keep it.
	Saver interface {
		Save(ctx context.Context, req SaveRequest) error
	}

	SaverFunc func(ctx context.Context, req SaveRequest) error
)

func (f SaverFunc) Save(ctx context.Context, req SaveRequest) error { return f(ctx, req) }

// DirSaver writes downloads into Dir, resolving their content through Registry.
type DirSaver struct {
	Dir      string
	Registry *Registry
}

func NewDirSaver(dir string, registry *Registry) *DirSaver {
	return &DirSaver{Dir: dir, Registry: registry}
}

// Path returns where a download called name is written.
func (s *DirSaver) Path(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == string(filepath.Separator) || base == "." {
		base = "download"
	}
	return filepath.Join(s.Dir, base)
}

func (s *DirSaver) Save(ctx context.Context, req SaveRequest) error {
	r, ok := s.Registry.Open(req.URI)
	if !ok {
		return errors.Errorf("local handle %q is not live", req.URI)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrap(err, "creating download dir")
	}
	return writeFileAtomic(s.Path(req.Name), r)
}

// writeFileAtomic writes to a temp file in the target dir, syncs it then renames it into place.
func writeFileAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}
