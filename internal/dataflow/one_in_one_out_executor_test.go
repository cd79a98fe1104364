package dataflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// doublingOperator is a stateless-data / stateful-watermark OneInOneOut
// operator: it doubles every int it sees and counts the watermarks it
// receives in its state.
type doublingOperator struct{}

func (doublingOperator) OnData(ctx *OneInOneOutContext[int], payload int) {
	_ = ctx.Write.Send(NewDataMessage(ctx.Timestamp, payload*2))
}

func (doublingOperator) OnWatermark(ctx *StatefulOneInOneOutContext[int, int]) {
	ctx.State.With(func(count *int) { *count++ })
}

func TestOneInOneOutExecutor_IdentityPipelineDoublesValues(t *testing.T) {
	inCh := make(chan Message[int], 4)
	outCh := make(chan Message[int], 4)

	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(inCh), nil)
	ws := NewWriteStream(NewStreamId(), (chan<- Message[int])(outCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "doubler", FlowWatermarks: true}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	exec := NewOneInOneOutExecutor[int, int, int](cfg, doublingOperator{}, rs, ws, helper, 0)

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)

	done := make(chan error, 1)
	go func() {
		done <- exec.Execute(context.Background(), rxShutdown, txWorker)
	}()

	ts := NewVectorTimestamp(1)
	inCh <- NewDataMessage(ts, 21)
	inCh <- NewWatermarkMessage[int](ts)
	close(inCh)

	// Drain the lattice the callbacks were scheduled into (the executor is
	// a producer only; invoking callbacks is the event runner's job, which
	// is out of this core's scope, so the test plays that role itself to
	// observe the forwarded messages).
	var gotData, gotWatermark bool
	deadline := time.After(2 * time.Second)
	for !gotData || !gotWatermark {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for output")
		default:
		}
		for _, ev := range helper.Lattice().DrainReady() {
			ev.Callback()
		}
		select {
		case msg := <-outCh:
			if msg.IsWatermark() {
				gotWatermark = true
			} else {
				payload, ok := msg.Data()
				require.True(t, ok)
				require.Equal(t, 42, payload)
				gotData = true
			}
		case <-time.After(10 * time.Millisecond):
		}
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("executor never terminated")
	}

	select {
	case n := <-txWorker:
		require.Equal(t, DestroyedOperator, n.Kind)
	default:
		t.Fatal("expected a DestroyedOperator notification")
	}
}

// TestOneInOneOutExecutor_TerminalWatermarkIsUnconditional pins down that the
// terminal Watermark(Top) on teardown does not depend on FlowWatermarks: an
// operator configured with FlowWatermarks: false still must not leave a
// downstream consumer hanging, even though its mid-stream watermarks are
// never forwarded.
func TestOneInOneOutExecutor_TerminalWatermarkIsUnconditional(t *testing.T) {
	inCh := make(chan Message[int], 4)
	outCh := make(chan Message[int], 4)

	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(inCh), nil)
	ws := NewWriteStream(NewStreamId(), (chan<- Message[int])(outCh), nil)

	cfg := OperatorConfig{NodeID: 1, OperatorID: NewOperatorID(), Name: "doubler", FlowWatermarks: false}
	helper := NewExecutorHelper(cfg, NewExecutionLattice(), nil, nil, nil, zaptest.NewLogger(t))
	exec := NewOneInOneOutExecutor[int, int, int](cfg, doublingOperator{}, rs, ws, helper, 0)

	rxShutdown := make(chan OperatorExecutorNotification, 1)
	txWorker := make(chan WorkerNotification, 1)

	done := make(chan error, 1)
	go func() {
		done <- exec.Execute(context.Background(), rxShutdown, txWorker)
	}()

	ts := NewVectorTimestamp(1)
	inCh <- NewDataMessage(ts, 21)
	inCh <- NewWatermarkMessage[int](ts)
	close(inCh)

	var gotTerminalWatermark bool
	deadline := time.After(2 * time.Second)
	for !gotTerminalWatermark {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for terminal watermark")
		default:
		}
		for _, ev := range helper.Lattice().DrainReady() {
			ev.Callback()
		}
		select {
		case msg := <-outCh:
			if msg.IsWatermark() {
				require.True(t, msg.Timestamp().IsTop(), "mid-stream watermark should not be forwarded when FlowWatermarks is false")
				gotTerminalWatermark = true
			} else {
				payload, ok := msg.Data()
				require.True(t, ok)
				require.Equal(t, 42, payload)
			}
		case <-time.After(10 * time.Millisecond):
		}
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("executor never terminated")
	}
}
