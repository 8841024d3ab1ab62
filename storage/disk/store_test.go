package diskstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-resources/storage"
	testutil "github.com/trezcool/masomo-resources/tests"
)

func TestStore(t *testing.T) {
	testutil.TestStore(t, func(t *testing.T) storage.Store {
		s, err := NewStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestStore_filesystem(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "resources")
	s, err := NewStore(root)
	require.NoError(t, err)

	_, err = s.Put(ctx, "notes.txt", strings.NewReader("week 1"))
	require.NoError(t, err)

	t.Run("one file per resource", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, "week 1", string(data))

		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp files are left behind")
	})

	t.Run("hidden and dirs are skipped", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, ".notes.txt.123.tmp"), []byte("partial"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(root, "archive"), 0o755))

		infos, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "notes.txt", infos[0].Name)

		_, err = s.Stat(ctx, ".notes.txt.123.tmp")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.Stat(ctx, "archive")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("written by someone else", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "dropped.pdf"), []byte("%PDF-1.4"), 0o644))
		info, err := s.Stat(ctx, "dropped.pdf")
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", info.MimeType)
		assert.EqualValues(t, 8, info.Size)
	})
}
