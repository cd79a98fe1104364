package dataflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadinessBarrier_WaitUnblocksOnceAllPeersReady(t *testing.T) {
	barrier := NewReadinessBarrier(2, nil)
	a, b := NewOperatorID(), NewOperatorID()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- barrier.Wait(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("barrier should not have opened yet")
	default:
	}

	barrier.MarkReady(a)
	barrier.MarkReady(b)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("barrier never opened")
	}
}

func TestReadinessBarrier_WaitRespectsContextCancellation(t *testing.T) {
	barrier := NewReadinessBarrier(2, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := barrier.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadinessBarrier_DuplicateMarkReadyIsNoOp(t *testing.T) {
	barrier := NewReadinessBarrier(2, nil)
	a := NewOperatorID()

	barrier.MarkReady(a)
	barrier.MarkReady(a)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := barrier.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
