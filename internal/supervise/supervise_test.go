// ABOUTME: Tests for the supervisor panic boundary.
// ABOUTME: Verifies recovery, counting, last-failure reporting and goroutine tracking.

package supervise

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_NoPanic(t *testing.T) {
	s := New(quietLogger())

	ran := false
	s.Run("ok", func() { ran = true })

	assert.True(t, ran)
	assert.Equal(t, 0, s.Panics())
	assert.Nil(t, s.LastFailure())
}

func TestRun_RecoversPanic(t *testing.T) {
	s := New(quietLogger())

	assert.NotPanics(t, func() {
		s.Run("forward", func() { panic("backend exploded") })
	})

	assert.Equal(t, 1, s.Panics())
	last := s.LastFailure()
	require.NotNil(t, last)
	assert.Equal(t, "forward", last.Task)
	assert.Equal(t, "backend exploded", last.Value)
	assert.False(t, last.At.IsZero())
}

func TestGo_RecoversAndWaits(t *testing.T) {
	s := New(quietLogger())

	var done int32
	for i := 0; i < 5; i++ {
		s.Go("worker", func() {
			atomic.AddInt32(&done, 1)
			panic("boom")
		})
	}
	s.Wait()

	assert.Equal(t, int32(5), atomic.LoadInt32(&done))
	assert.Equal(t, 5, s.Panics())
}

func TestNew_NilLogger(t *testing.T) {
	s := New(nil)
	s.Run("nil-logger", func() { panic(42) })
	assert.Equal(t, "42", s.LastFailure().Value)
}
