package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"guild-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	configured bool
	calls      atomic.Int32
	err        error
}

func (f *fakeSyncer) RemoteConfigured() bool { return f.configured }

func (f *fakeSyncer) SyncMirror(context.Context) (int, error) {
	f.calls.Add(1)
	return 3, f.err
}

func TestSchedulerRunsSync(t *testing.T) {
	syncer := &fakeSyncer{configured: true}
	s, err := NewScheduler(&config.Config{MirrorSyncInterval: 20 * time.Millisecond}, syncer, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerSurvivesSyncErrors(t *testing.T) {
	syncer := &fakeSyncer{configured: true, err: errors.New("remote down")}
	s, err := NewScheduler(&config.Config{MirrorSyncInterval: 20 * time.Millisecond}, syncer, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerSkippedWithoutRemote(t *testing.T) {
	syncer := &fakeSyncer{}
	s, err := NewScheduler(&config.Config{}, syncer, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, s.interval)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, syncer.calls.Load())
}
