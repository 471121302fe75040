package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiverFunc func(ctx context.Context) (map[string]int64, error)

func (f archiverFunc) ArchiveAll(ctx context.Context) (map[string]int64, error) {
	return f(ctx)
}

func TestNew_RejectsNonPositiveInterval(t *testing.T) {
	_, err := New(archiverFunc(nil), 0)
	assert.Error(t, err)
}

func TestScheduler_RunsArchive(t *testing.T) {
	var runs atomic.Int32
	s, err := New(archiverFunc(func(ctx context.Context) (map[string]int64, error) {
		runs.Add(1)
		if runs.Load() == 1 {
			return nil, errors.New("batch locked")
		}
		return map[string]int64{"spring": 2}, nil
	}), 20*time.Millisecond)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond,
		"a failed run does not stop the schedule")
	require.NoError(t, s.Shutdown())
}
