package resource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSaver_Path(t *testing.T) {
	s := NewDirSaver("/downloads", nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "report.pdf", want: "/downloads/report.pdf"},
		{name: "nested", in: "a/b/report.pdf", want: "/downloads/report.pdf"},
		{name: "traversal", in: "../../etc/passwd", want: "/downloads/passwd"},
		{name: "dot dot", in: "..", want: "/downloads/download"},
		{name: "empty", in: "", want: "/downloads/download"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), s.Path(tt.in))
		})
	}
}

func TestDirSaver_Save(t *testing.T) {
	registry := NewRegistry("")
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewDirSaver(dir, registry)

	uri := registry.Create([]byte("content"), "text/plain")
	require.NoError(t, s.Save(context.Background(), SaveRequest{URI: uri, Name: "notes.txt"}))

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")

	t.Run("overwrites", func(t *testing.T) {
		uri := registry.Create([]byte("v2"), "text/plain")
		require.NoError(t, s.Save(context.Background(), SaveRequest{URI: uri, Name: "notes.txt"}))
		data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("released handle", func(t *testing.T) {
		uri := registry.Create([]byte("gone"), "")
		registry.Revoke(uri)
		assert.Error(t, s.Save(context.Background(), SaveRequest{URI: uri, Name: "gone.txt"}))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		uri := registry.Create([]byte("late"), "")
		assert.ErrorIs(t, s.Save(ctx, SaveRequest{URI: uri, Name: "late.txt"}), context.Canceled)
		_, err := os.Stat(filepath.Join(dir, "late.txt"))
		assert.True(t, os.IsNotExist(err))
	})
}
