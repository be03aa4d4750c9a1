package achan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopSignal_UnresolvedHasOpenDone(t *testing.T) {
	s := newStopSignal()
	assert.False(t, s.Resolved())
	select {
	case <-s.Done():
		t.Fatal("Done channel should not be closed yet")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestStopSignal_StopResolvesOnce(t *testing.T) {
	s := newStopSignal()
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	s.Stop(errFirst)
	require.True(t, s.Resolved())
	assert.Equal(t, errFirst, s.Err())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel should be closed")
	}

	// Second call is a no-op: the first error wins (invariant I8).
	s.Stop(errSecond)
	assert.Equal(t, errFirst, s.Err())
}

func TestStopSignal_StopWithNilError(t *testing.T) {
	s := newStopSignal()
	s.Stop(nil)
	assert.True(t, s.Resolved())
	assert.NoError(t, s.Err())
}

func TestStopSignal_ConcurrentStopIsSafe(t *testing.T) {
	s := newStopSignal()
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func(i int) {
			s.Stop(errors.New("race"))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	assert.True(t, s.Resolved())
	assert.Error(t, s.Err())
}
