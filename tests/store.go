package testutil

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-resources/storage"
)

// TestStore runs the behaviour every storage.Store implementation must share.
func TestStore(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("put then open", func(t *testing.T) {
		s := newStore(t)
		info, err := s.Put(ctx, "syllabus.pdf", strings.NewReader("%PDF-1.4 syllabus"))
		require.NoError(t, err)
		assert.Equal(t, "syllabus.pdf", info.Name)
		assert.EqualValues(t, 17, info.Size)
		assert.Equal(t, "application/pdf", info.MimeType)
		assert.False(t, info.ModTime.IsZero())

		rc, got, err := s.Open(ctx, "syllabus.pdf")
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 syllabus", string(data))
		assert.Equal(t, info.Size, got.Size)
		assert.Equal(t, info.MimeType, got.MimeType)

		// seekable, as http.ServeContent requires
		_, err = rc.Seek(0, io.SeekStart)
		require.NoError(t, err)
	})

	t.Run("mime sniffing", func(t *testing.T) {
		s := newStore(t)
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		info, err := s.Put(ctx, "logo", bytes.NewReader(png))
		require.NoError(t, err)
		assert.Equal(t, "image/png", info.MimeType)
	})

	t.Run("replace", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "notes.txt", strings.NewReader("v1"))
		require.NoError(t, err)
		_, err = s.Put(ctx, "notes.txt", strings.NewReader("version 2"))
		require.NoError(t, err)

		info, err := s.Stat(ctx, "notes.txt")
		require.NoError(t, err)
		assert.EqualValues(t, 9, info.Size)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Stat(ctx, "missing.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, _, err = s.Open(ctx, "missing.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "missing.pdf"), storage.ErrNotFound)
	})

	t.Run("invalid names", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"", ".", "..", "a/b.pdf", `a\b.pdf`, "../escape.pdf", strings.Repeat("a", 256)} {
			_, err := s.Put(ctx, name, strings.NewReader("x"))
			assert.ErrorIs(t, err, storage.ErrInvalidName, "name %q", name)
		}
		infos, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "old.pdf", strings.NewReader("x"))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, "old.pdf"))
		_, err = s.Stat(ctx, "old.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list sorted", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
			_, err := s.Put(ctx, name, strings.NewReader(name))
			require.NoError(t, err)
		}
		infos, err := s.List(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(infos))
		for _, info := range infos {
			names = append(names, info.Name)
		}
		assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
	})

	t.Run("cancelled put", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Put(cctx, "late.txt", strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
		_, err = s.Stat(ctx, "late.txt")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
