package dataflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingSource emits n integers then returns, letting the executor emit
// the terminal watermark on teardown.
type countingSource struct{ n int }

func (s countingSource) Run(ctx context.Context, out *WriteStream[int]) {
	for i := 0; i < s.n; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_ = out.Send(NewDataMessage(NewVectorTimestamp(uint64(i)), i))
	}
}

func TestSourceExecutor_EmitsDataThenTerminalWatermark(t *testing.T) {
	outCh := make(chan Message[int], 8)
	out := NewWriteStream(NewStreamId(), (chan<- Message[int])(outCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "source", FlowWatermarks: true}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	exec := NewSourceExecutor[int](cfg, countingSource{n: 3}, out, helper)

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)

	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), rxShutdown, txWorker) }()

	var gotValues []int
	var gotTerminal bool
	deadline := time.After(2 * time.Second)
	for !gotTerminal {
		select {
		case msg := <-outCh:
			if msg.IsWatermark() {
				require.True(t, msg.Timestamp().IsTop())
				gotTerminal = true
			} else {
				payload, ok := msg.Data()
				require.True(t, ok)
				gotValues = append(gotValues, payload)
			}
		case <-deadline:
			t.Fatalf("timed out, got values %v, terminal=%v", gotValues, gotTerminal)
		}
	}
	require.Equal(t, []int{0, 1, 2}, gotValues)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("source executor never terminated")
	}
}

// blockingSource never returns on its own; only ctx cancellation stops it.
type blockingSource struct{}

func (blockingSource) Run(ctx context.Context, out *WriteStream[int]) {
	<-ctx.Done()
}

func TestSourceExecutor_ShutdownNotificationStopsRun(t *testing.T) {
	outCh := make(chan Message[int], 2)
	out := NewWriteStream(NewStreamId(), (chan<- Message[int])(outCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "blocker", FlowWatermarks: true}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	exec := NewSourceExecutor[int](cfg, blockingSource{}, out, helper)

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)

	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), rxShutdown, txWorker) }()

	rxShutdown <- Shutdown

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not stop after shutdown notification")
	}

	select {
	case n := <-txWorker:
		require.Equal(t, DestroyedOperator, n.Kind)
	default:
		t.Fatal("expected a DestroyedOperator notification")
	}
}
