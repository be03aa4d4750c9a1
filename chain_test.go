package achan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHandoff_PlainValue(t *testing.T) {
	h := handoff[int]{raw: rawFromValue(7), hasRaw: true}
	res, err := resolveHandoff(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Value)
	assert.True(t, res.HasValue)
	assert.False(t, res.Done)
}

func TestResolveHandoff_TerminalWithValue(t *testing.T) {
	h := handoff[int]{terminal: true, doneValue: 9, hasDoneValue: true}
	res, err := resolveHandoff(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Value)
	assert.True(t, res.Done)
	assert.True(t, res.HasValue)
}

func TestResolveHandoff_TerminalNoValue(t *testing.T) {
	h := handoff[int]{terminal: true}
	res, err := resolveHandoff(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.False(t, res.HasValue)
}

func TestResolveHandoff_TerminalError(t *testing.T) {
	boom := errors.New("boom")
	h := handoff[int]{terminal: true, err: boom}
	_, err := resolveHandoff(context.Background(), h)
	assert.ErrorIs(t, err, boom)
}

type fakeFuture[T any] struct {
	v   T
	err error
}

func (f fakeFuture[T]) Await(ctx context.Context) (T, error) { return f.v, f.err }

func TestResolveHandoff_AwaitsFutureSuccess(t *testing.T) {
	h := handoff[int]{raw: rawFromFuture[int](fakeFuture[int]{v: 42}), hasRaw: true}
	res, err := resolveHandoff(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 42, res.Value)
	assert.True(t, res.HasValue)
}

func TestResolveHandoff_FutureRejectionAbsorbedByHook(t *testing.T) {
	boom := errors.New("rejected")
	h := handoff[int]{
		raw:        rawFromFuture[int](fakeFuture[int]{err: boom}),
		hasRaw:     true,
		rejectHook: func(error) error { return nil },
	}
	res, err := resolveHandoff(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.False(t, res.HasValue)
}

func TestResolveHandoff_FutureRejectionPropagatedByHook(t *testing.T) {
	boom := errors.New("rejected")
	rewritten := errors.New("rewritten")
	h := handoff[int]{
		raw:        rawFromFuture[int](fakeFuture[int]{err: boom}),
		hasRaw:     true,
		rejectHook: func(error) error { return rewritten },
	}
	_, err := resolveHandoff(context.Background(), h)
	assert.ErrorIs(t, err, rewritten)
}

func TestResolveHandoff_FutureRejectionNoHookPropagatesAsIs(t *testing.T) {
	boom := errors.New("rejected")
	h := handoff[int]{raw: rawFromFuture[int](fakeFuture[int]{err: boom}), hasRaw: true}
	_, err := resolveHandoff(context.Background(), h)
	assert.ErrorIs(t, err, boom)
}

func TestIterationChain_PreservesCallOrder(t *testing.T) {
	chain := &iterationChain[int]{}
	ctx := context.Background()

	// Enqueue three links whose underlying handoffs become available out of
	// order; the chain must still deliver them in enqueue order (I6).
	release1 := make(chan handoff[int], 1)
	release2 := make(chan handoff[int], 1)
	release3 := make(chan handoff[int], 1)

	link1 := chain.enqueue(ctx, func() handoff[int] { return <-release1 })
	link2 := chain.enqueue(ctx, func() handoff[int] { return <-release2 })
	link3 := chain.enqueue(ctx, func() handoff[int] { return <-release3 })

	// Resolve out of order: 3, then 2, then 1.
	release3 <- handoff[int]{raw: rawFromValue(3), hasRaw: true}
	release2 <- handoff[int]{raw: rawFromValue(2), hasRaw: true}
	release1 <- handoff[int]{raw: rawFromValue(1), hasRaw: true}

	res1, err1, _ := link1.wait()
	require.NoError(t, err1)
	assert.Equal(t, 1, res1.Value)

	res2, err2, _ := link2.wait()
	require.NoError(t, err2)
	assert.Equal(t, 2, res2.Value)

	res3, err3, _ := link3.wait()
	require.NoError(t, err3)
	assert.Equal(t, 3, res3.Value)
}

func TestIterationChain_TerminalLinkCollapsesLaterLinks(t *testing.T) {
	chain := &iterationChain[int]{}
	ctx := context.Background()

	link1 := chain.enqueue(ctx, func() handoff[int] { return handoff[int]{terminal: true} })
	link2 := chain.enqueue(ctx, func() handoff[int] {
		// This would be a real value, but link1 was terminal, so it must
		// never be observed.
		return handoff[int]{raw: rawFromValue(99), hasRaw: true}
	})

	res1, err1, term1 := link1.wait()
	require.NoError(t, err1)
	assert.True(t, res1.Done)
	assert.True(t, term1)

	res2, err2, term2 := link2.wait()
	require.NoError(t, err2)
	assert.True(t, res2.Done)
	assert.False(t, res2.HasValue)
	assert.True(t, term2)
}

func TestIterationChain_FirstLinkHasNoPredecessor(t *testing.T) {
	chain := &iterationChain[int]{}
	this, prev := chain.append()
	assert.Nil(t, prev)
	assert.NotNil(t, this)
}

func TestChainLink_WaitBlocksUntilSettled(t *testing.T) {
	link := newChainLink[int]()
	settled := make(chan struct{})
	go func() {
		time.Sleep(5 * time.Millisecond)
		link.settle(Result[int]{Value: 1, HasValue: true}, nil, false)
		close(settled)
	}()
	res, err, term := link.wait()
	<-settled
	require.NoError(t, err)
	assert.Equal(t, 1, res.Value)
	assert.False(t, term)
}
