package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/spidersearch/internal/cache"
	"github.com/nao1215/spidersearch/internal/config"
	"github.com/nao1215/spidersearch/internal/index"
	"github.com/nao1215/spidersearch/internal/log"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("expected use 'serve', got %q", cmd.Use)
	}

	flag := cmd.Flags().Lookup("port")
	if flag == nil {
		t.Fatal("expected port flag")
	}
	if flag.Shorthand != "p" {
		t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
	}
	if flag.DefValue != "8080" {
		t.Errorf("expected default '8080', got %q", flag.DefValue)
	}
}

func TestServe_InvalidPort(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "serve", "-c", writeConfig(t), "-p", "70000")
	if !errors.Is(err, config.ErrInvalidPort) {
		t.Fatalf("error = %v, want %v", err, config.ErrInvalidPort)
	}
}

func TestOpenCache(t *testing.T) {
	t.Parallel()

	t.Run("disabled without address", func(t *testing.T) {
		t.Parallel()

		c, closeCache := openCache(context.Background(), config.Server{CacheTTL: time.Minute}, log.Discard())
		defer closeCache()
		if _, ok := c.(cache.Nop); !ok {
			t.Errorf("expected Nop cache, got %T", c)
		}
	})

	t.Run("disabled with zero ttl", func(t *testing.T) {
		t.Parallel()

		c, closeCache := openCache(context.Background(), config.Server{RedisAddr: "127.0.0.1:6379"}, log.Discard())
		defer closeCache()
		if _, ok := c.(cache.Nop); !ok {
			t.Errorf("expected Nop cache, got %T", c)
		}
	})

	t.Run("unreachable server falls back", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := log.New(&buf, log.Options{})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		c, closeCache := openCache(ctx, config.Server{RedisAddr: "127.0.0.1:1", CacheTTL: time.Minute}, logger)
		defer closeCache()
		if _, ok := c.(cache.Nop); !ok {
			t.Errorf("expected Nop cache, got %T", c)
		}
		if !strings.Contains(buf.String(), "result cache disabled") {
			t.Errorf("expected a warning, got %q", buf.String())
		}
	})
}

func TestMonitorIndex_StopsWithContext(t *testing.T) {
	t.Parallel()

	store, err := index.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "index.db"),
		index.SQLiteOptions{CreateIfNotExists: true, Logger: log.Discard()})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		monitorIndex(ctx, store, log.Discard())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitorIndex did not return after cancellation")
	}
}
