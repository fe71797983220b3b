package main

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingtools/jobtrack/server/internal/store"
	"github.com/pingtools/jobtrack/server/internal/sweeper"
	"github.com/pingtools/jobtrack/server/internal/ws"
)

func TestBackground_WaitJoinsLoops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	st := store.New(nil)
	var bg background
	var returned atomic.Int32

	bg.Go(func() {
		sweeper.New(st, time.Second, nil).Run(ctx)
		returned.Add(1)
	})
	bg.Go(func() {
		ws.New(st, 10*time.Millisecond).Run(ctx)
		returned.Add(1)
	})

	cancel()

	done := make(chan struct{})
	go func() {
		bg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
	assert.Equal(t, int32(2), returned.Load(), "every loop returned before Wait")
}

func TestBackground_WaitBlocksUntilDone(t *testing.T) {
	var bg background
	release := make(chan struct{})
	bg.Go(func() { <-release })

	done := make(chan struct{})
	go func() {
		bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while a loop was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the loop finished")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, watch, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.False(t, watch)
	assert.Equal(t, 3000, cfg.Server.HTTPPort)
}

func TestLoadConfig_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 0\n"), 0o600))
	_, _, err := loadConfig(path)
	assert.Error(t, err)
}
