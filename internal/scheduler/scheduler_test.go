// Copyright 2025 James Ross
package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) ClearOldRecords(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestNewRejectsInvalidCronSpec(t *testing.T) {
	_, err := New(&fakeSweeper{}, "not a cron spec", zap.NewNop())
	assert.Error(t, err)
}

func TestRunSweepInvokesStore(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := New(sweeper, "0 0 * * *", zap.NewNop())
	require.NoError(t, err)

	s.runSweep()

	assert.Equal(t, 1, sweeper.calls)
}

func TestRunSweepLogsStoreError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("disk full")}
	s, err := New(sweeper, "0 0 * * *", zap.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.runSweep() })
	assert.Equal(t, 1, sweeper.calls)
}

func TestStartAndStopDoesNotBlockForever(t *testing.T) {
	s, err := New(&fakeSweeper{}, "0 0 * * *", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Stop()
}
