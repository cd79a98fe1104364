package dataflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingSink sums every data payload into the package-level sinkTotals
// and counts the watermarks it observes in its state.
type countingSink struct{}

func (countingSink) OnData(ctx *SinkContext[int], payload int) {
	sinkTotals.With(func(total *int) { *total += payload })
}

func (countingSink) OnWatermark(ctx *StatefulSinkContext[int]) {
	ctx.State.With(func(count *int) { *count++ })
}

// sinkTotals is package-level scratch state the test operator closes over;
// a real operator would carry its own field instead, but OnData here has
// no stateful context to use (only OnWatermark touches state).
var sinkTotals = NewSharedState(0)

func TestSinkExecutor_ConsumesDataAndCountsWatermarks(t *testing.T) {
	sinkTotals = NewSharedState(0)
	inCh := make(chan Message[int], 8)
	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(inCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "sink", FlowWatermarks: true}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	exec := NewSinkExecutor[int, int](cfg, countingSink{}, rs, helper, 0)

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)

	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()
	go runLatticeDrainer(drainCtx, helper.Lattice())

	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), rxShutdown, txWorker) }()

	ts := NewVectorTimestamp(1)
	inCh <- NewDataMessage(ts, 5)
	inCh <- NewDataMessage(ts, 7)
	inCh <- NewWatermarkMessage[int](ts)
	close(inCh)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sink executor never terminated")
	}

	// Drain once more: the final events may have been added to the lattice
	// right before the stream closed.
	for _, ev := range helper.Lattice().DrainReady() {
		ev.Callback()
	}

	sinkTotals.With(func(total *int) {
		require.Equal(t, 12, *total)
	})
}
