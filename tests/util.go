package testutil

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
)

// NewConfig returns a TEST configuration that does not depend on the environment.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "Masomo",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			Host:               ":0",
			ReadTimeout:        5 * time.Second,
			WriteTimeout:       5 * time.Second,
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
			MaxUploadSize:      1 << 20,
			DisableReqLogs:     true,
		},
		Storage: core.StorageConfig{Backend: "inmem"},
		Client: core.ClientConfig{
			ResourcePath: "/resources",
			Timeout:      5 * time.Second,
			AutoLoad:     true,
			AutoCleanup:  true,
		},
	}
}

// SeedStore puts every name -> content pair into store.
func SeedStore(t *testing.T, store storage.Store, resources map[string][]byte) map[string]storage.Info {
	t.Helper()
	infos := make(map[string]storage.Info, len(resources))
	for name, data := range resources {
		info, err := store.Put(context.Background(), name, bytes.NewReader(data))
		if err != nil {
			t.Fatalf("SeedStore(%q) failed: %v", name, err)
		}
		infos[name] = info
	}
	return infos
}
