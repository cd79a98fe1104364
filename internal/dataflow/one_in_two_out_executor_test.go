package dataflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// splitter is a Sequential OneInTwoOut operator: even payloads go left, odd
// payloads go right. Watermark forwarding to both outputs is the executor's
// job, not the operator's.
type splitter struct{}

func (splitter) OnData(ctx *StatefulOneInTwoOutContext[int, int, int], payload int) {
	ctx.State.With(func(count *int) { *count++ })
	if payload%2 == 0 {
		_ = ctx.Left.Send(NewDataMessage(ctx.Timestamp, payload))
	} else {
		_ = ctx.Right.Send(NewDataMessage(ctx.Timestamp, payload))
	}
}

func (splitter) OnWatermark(ctx *StatefulOneInTwoOutContext[int, int, int]) {}

func TestSequentialOneInTwoOutExecutor_SplitsDataAndForwardsWatermark(t *testing.T) {
	inCh := make(chan Message[int], 8)
	leftCh := make(chan Message[int], 8)
	rightCh := make(chan Message[int], 8)

	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(inCh), nil)
	left := NewWriteStream(NewStreamId(), (chan<- Message[int])(leftCh), nil)
	right := NewWriteStream(NewStreamId(), (chan<- Message[int])(rightCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "splitter", FlowWatermarks: true}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	exec := NewSequentialOneInTwoOutExecutor[int, int, int, int](cfg, splitter{}, rs, left, right, helper, 0)

	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()
	go runLatticeDrainer(drainCtx, helper.Lattice())

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)
	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), rxShutdown, txWorker) }()

	ts := NewVectorTimestamp(1)
	inCh <- NewDataMessage(ts, 2)
	inCh <- NewDataMessage(ts, 3)
	inCh <- NewWatermarkMessage[int](ts)
	close(inCh)

	select {
	case msg := <-leftCh:
		payload, ok := msg.Data()
		require.True(t, ok)
		require.Equal(t, 2, payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for left data")
	}

	select {
	case msg := <-rightCh:
		payload, ok := msg.Data()
		require.True(t, ok)
		require.Equal(t, 3, payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for right data")
	}

	for _, ch := range []chan Message[int]{leftCh, rightCh} {
		select {
		case msg := <-ch:
			require.True(t, msg.IsWatermark())
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for forwarded watermark")
		}
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("executor never terminated")
	}
}

// counterState is a minimal AppendableState: Append records one
// contribution under its own lock (since data callbacks may run
// concurrently in Parallel mode) and CommitAt snapshots the running total.
type counterState struct {
	mu        sync.Mutex
	count     int
	snapshots []int
}

func (c *counterState) Append(item *counterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *counterState) CommitAt(ts Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, c.count)
}

// parallelSplitter is a Parallel OneInTwoOut operator: it forwards every
// payload to the left output and appends to state concurrently.
type parallelSplitter struct{}

func (parallelSplitter) OnData(ctx *ParallelOneInTwoOutContext[*counterState, int, int], payload int) {
	ctx.State.Append(ctx.State)
	_ = ctx.Left.Send(NewDataMessage(ctx.Timestamp, payload))
}

func (parallelSplitter) OnWatermark(ctx *ParallelOneInTwoOutContext[*counterState, int, int]) {}

func TestParallelOneInTwoOutExecutor_CommitsStateAtWatermark(t *testing.T) {
	inCh := make(chan Message[int], 8)
	leftCh := make(chan Message[int], 8)
	rightCh := make(chan Message[int], 8)

	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(inCh), nil)
	left := NewWriteStream(NewStreamId(), (chan<- Message[int])(leftCh), nil)
	right := NewWriteStream(NewStreamId(), (chan<- Message[int])(rightCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "parallel-splitter", FlowWatermarks: true}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	state := &counterState{}
	exec := NewParallelOneInTwoOutExecutor[*counterState, int, int, int](cfg, parallelSplitter{}, rs, left, right, helper, state)

	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()
	go runLatticeDrainer(drainCtx, helper.Lattice())

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)
	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), rxShutdown, txWorker) }()

	ts := NewVectorTimestamp(1)
	inCh <- NewDataMessage(ts, 1)
	inCh <- NewDataMessage(ts, 2)
	inCh <- NewDataMessage(ts, 3)
	inCh <- NewWatermarkMessage[int](ts)
	close(inCh)

	for i := 0; i < 3; i++ {
		select {
		case <-leftCh:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for forwarded data")
		}
	}

	select {
	case msg := <-leftCh:
		require.True(t, msg.IsWatermark())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for left watermark")
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("executor never terminated")
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	require.Equal(t, []int{3}, state.snapshots)
}
