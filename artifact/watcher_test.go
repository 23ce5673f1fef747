package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medpredict/artifact/artifacttest"
	"medpredict/ml"
)

func TestWatcherReloadsChangedCondition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, artifacttest.Write(dir))
	store := NewStore(NewFileLoader(dir), nil)
	store.Load(context.Background())

	w, err := NewWatcher(store, dir, 20*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.Remove(filepath.Join(dir, "heart_model.json")))
	assert.Eventually(t, func() bool { return !store.Available(ml.Heart) }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, store.Available(ml.Diabetes))

	require.NoError(t, artifacttest.Write(dir, ml.Heart))
	assert.Eventually(t, func() bool { return store.Available(ml.Heart) }, 2*time.Second, 10*time.Millisecond)
}

func TestNewWatcherMissingDir(t *testing.T) {
	store := NewStore(NewFileLoader("does-not-exist"), nil)
	_, err := NewWatcher(store, filepath.Join(t.TempDir(), "missing"), time.Millisecond, nil)
	assert.Error(t, err)
}
