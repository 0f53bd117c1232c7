package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/xbpar/pkg/cache"
)

func TestCacheClearCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	fc, err := cache.NewFileCache(filepath.Join(xdg, appName))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(context.Background(), k, []byte(`{}`), time.Hour); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}

	c := New(&bytes.Buffer{}, LogInfo)
	cmd := c.cacheClearCommand()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if _, ok, _ := fc.Get(context.Background(), k); ok {
			t.Errorf("entry %q survived cache clear", k)
		}
	}
}

func TestCacheClearMissingDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", filepath.Join(t.TempDir(), "nothing"))

	c := New(&bytes.Buffer{}, LogInfo)
	cmd := c.cacheClearCommand()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear on a missing dir: %v", err)
	}

	dir, _ := cacheDir()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("cache clear created %s", dir)
	}
}
