package diskstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
)

const tmpSuffix = ".tmp"

type store struct {
	root string
}

var _ storage.Store = (*store)(nil)

// NewStore returns a Store keeping one file per resource under root, which is created if missing.
// Metadata is derived from the filesystem: no database, no sidecar files.
func NewStore(root string) (storage.Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &store{root: root}, nil
}

func (s *store) path(name string) (string, error) {
	if !core.IsResourceName(name) || strings.HasPrefix(name, ".") {
		return "", storage.ErrInvalidName
	}
	return filepath.Join(s.root, name), nil
}

func (s *store) Stat(_ context.Context, name string) (storage.Info, error) {
	p, err := s.path(name)
	if err != nil {
		return storage.Info{}, storage.ErrNotFound
	}
	f, err := os.Open(p)
	if err != nil {
		return storage.Info{}, notFound(err)
	}
	defer func() { _ = f.Close() }()
	return s.info(name, f)
}

func (s *store) Open(_ context.Context, name string) (io.ReadSeekCloser, storage.Info, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, storage.Info{}, storage.ErrNotFound
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, storage.Info{}, notFound(err)
	}
	info, err := s.info(name, f)
	if err != nil {
		_ = f.Close()
		return nil, storage.Info{}, err
	}
	return f, info, nil
}

func (s *store) Put(ctx context.Context, name string, r io.Reader) (storage.Info, error) {
	p, err := s.path(name)
	if err != nil {
		return storage.Info{}, err
	}

	tmp, err := os.CreateTemp(s.root, "."+name+".*"+tmpSuffix)
	if err != nil {
		return storage.Info{}, errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return storage.Info{}, errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return storage.Info{}, errors.Wrap(err, "syncing temp file")
	}
	if err = tmp.Close(); err != nil {
		return storage.Info{}, errors.Wrap(err, "closing temp file")
	}
	if err = ctx.Err(); err != nil {
		return storage.Info{}, err
	}
	if err = os.Rename(tmpPath, p); err != nil {
		return storage.Info{}, errors.Wrap(err, "renaming temp file")
	}
	return s.Stat(ctx, name)
}

func (s *store) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return storage.ErrNotFound
	}
	if err = os.Remove(p); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *store) List(ctx context.Context) ([]storage.Info, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "reading storage root")
	}
	infos := make([]storage.Info, 0, len(entries))
	for _, e := range entries {
		// skip dirs and in-progress writes
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := s.Stat(ctx, e.Name())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) { // removed meanwhile
				continue
			}
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *store) info(name string, f *os.File) (storage.Info, error) {
	fi, err := f.Stat()
	if err != nil {
		return storage.Info{}, errors.Wrap(err, "stat")
	}
	if fi.IsDir() {
		return storage.Info{}, storage.ErrNotFound
	}

	head := make([]byte, 512)
	n, err := f.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return storage.Info{}, errors.Wrap(err, "reading head")
	}
	return storage.Info{
		Name:     name,
		Size:     fi.Size(),
		MimeType: storage.DetectMimeType(name, head[:n]),
		ModTime:  fi.ModTime().UTC(),
	}, nil
}

func notFound(err error) error {
	if os.IsNotExist(err) {
		return storage.ErrNotFound
	}
	return err
}
