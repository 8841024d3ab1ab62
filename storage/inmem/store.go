package inmemstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
)

type entry struct {
	info storage.Info
	data []byte
}

type store struct {
	mutex sync.RWMutex
	table map[string]*entry
}

var _ storage.Store = (*store)(nil)

// NewStore returns an empty Store that keeps everything in memory.
func NewStore() storage.Store {
	return &store{table: make(map[string]*entry)}
}

func (s *store) Stat(_ context.Context, name string) (storage.Info, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.table[name]
	if !ok {
		return storage.Info{}, storage.ErrNotFound
	}
	return e.info, nil
}

func (s *store) Open(_ context.Context, name string) (io.ReadSeekCloser, storage.Info, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.table[name]
	if !ok {
		return nil, storage.Info{}, storage.ErrNotFound
	}
	return nopCloser{bytes.NewReader(e.data)}, e.info, nil
}

func (s *store) Put(ctx context.Context, name string, r io.Reader) (storage.Info, error) {
	if !core.IsResourceName(name) {
		return storage.Info{}, storage.ErrInvalidName
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Info{}, err
	}
	if err = ctx.Err(); err != nil {
		return storage.Info{}, err
	}
	info := storage.Info{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: storage.DetectMimeType(name, data),
		ModTime:  time.Now().UTC(),
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[name] = &entry{info: info, data: data}
	return info, nil
}

func (s *store) Delete(_ context.Context, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.table[name]; !ok {
		return storage.ErrNotFound
	}
	delete(s.table, name)
	return nil
}

func (s *store) List(_ context.Context) ([]storage.Info, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	infos := make([]storage.Info, 0, len(s.table))
	for _, e := range s.table {
		infos = append(infos, e.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
