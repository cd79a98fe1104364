package dataflow

import (
	"context"
	"sync"
)

// ReadStream is an executor's handle onto one inbound channel of messages.
// It is not safe to share a single ReadStream across goroutines that both
// call Read; each input is owned by exactly one executor loop.
type ReadStream[T any] struct {
	id        StreamId
	ch        <-chan Message[T]
	condition *ConditionContext
}

// NewReadStream wraps ch as a ReadStream identified by id, sharing cc with
// the paired WriteStream on the other end so deadline predicates see a
// consistent view of traffic on the stream.
func NewReadStream[T any](id StreamId, ch <-chan Message[T], cc *ConditionContext) *ReadStream[T] {
	if cc == nil {
		cc = NewConditionContext()
	}
	return &ReadStream[T]{id: id, ch: ch, condition: cc}
}

// ID returns the stream's identifier.
func (r *ReadStream[T]) ID() StreamId { return r.id }

// ConditionContext returns the shared per-timestamp accounting for this
// stream.
func (r *ReadStream[T]) ConditionContext() *ConditionContext { return r.condition }

// Read blocks until a message arrives, the stream closes, or ctx is
// cancelled. It records the message into the stream's ConditionContext
// before returning it.
func (r *ReadStream[T]) Read(ctx context.Context) (Message[T], error) {
	select {
	case msg, ok := <-r.ch:
		if !ok {
			var zero Message[T]
			return zero, ErrStreamClosed
		}
		r.record(msg)
		return msg, nil
	case <-ctx.Done():
		var zero Message[T]
		return zero, ctx.Err()
	}
}

// record updates the stream's ConditionContext for a message that was
// received outside of Read — callers (e.g. process_stream's combined
// select) that receive directly off the channel must call this themselves.
func (r *ReadStream[T]) record(msg Message[T]) {
	if msg.IsWatermark() {
		r.condition.RecordWatermark(msg.Timestamp())
	} else {
		r.condition.RecordData(msg.Timestamp())
	}
}

// channel exposes the underlying receive channel for package-internal
// multi-way select loops (process_stream, process_two_streams) that must
// combine a stream read with other channels in a single select.
func (r *ReadStream[T]) channel() <-chan Message[T] {
	return r.ch
}

// WriteStream is an executor's handle onto one outbound channel of
// messages. Clone returns a second handle sharing the same underlying
// channel and close state, so multiple goroutines (e.g. a Parallel
// one-in-two-out executor's concurrent data callbacks) can hold their own
// WriteStream value without racing on a single struct.
type WriteStream[U any] struct {
	id        StreamId
	ch        chan<- Message[U]
	condition *ConditionContext
	state     *writeStreamState
}

type writeStreamState struct {
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

// NewWriteStream wraps ch as a WriteStream identified by id.
func NewWriteStream[U any](id StreamId, ch chan<- Message[U], cc *ConditionContext) *WriteStream[U] {
	if cc == nil {
		cc = NewConditionContext()
	}
	return &WriteStream[U]{id: id, ch: ch, condition: cc, state: &writeStreamState{}}
}

// ID returns the stream's identifier.
func (w *WriteStream[U]) ID() StreamId { return w.id }

// Statistics returns the shared per-timestamp accounting for this stream.
func (w *WriteStream[U]) Statistics() *ConditionContext { return w.condition }

// Clone returns a second handle over the same underlying channel and close
// state, safe to hand to a concurrent callback.
func (w *WriteStream[U]) Clone() *WriteStream[U] {
	return &WriteStream[U]{id: w.id, ch: w.ch, condition: w.condition, state: w.state}
}

// IsClosed reports whether Close has been called on this stream (by any of
// its clones).
func (w *WriteStream[U]) IsClosed() bool {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	return w.state.closed
}

// Send delivers msg on the stream. It fails with ErrStreamClosed if the
// stream has already been closed, and records the message in the stream's
// ConditionContext on success.
func (w *WriteStream[U]) Send(msg Message[U]) error {
	w.state.mu.Lock()
	closed := w.state.closed
	w.state.mu.Unlock()
	if closed {
		return ErrStreamClosed
	}
	w.ch <- msg
	if msg.IsWatermark() {
		w.condition.RecordWatermark(msg.Timestamp())
	} else {
		w.condition.RecordData(msg.Timestamp())
	}
	return nil
}

// Close marks the stream closed and closes the underlying channel exactly
// once, however many clones are in play.
func (w *WriteStream[U]) Close() {
	w.state.once.Do(func() {
		w.state.mu.Lock()
		w.state.closed = true
		w.state.mu.Unlock()
		close(w.ch)
	})
}
