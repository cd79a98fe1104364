package dataflow

import (
	"sync"

	"go.uber.org/zap"
)

// OperatorExecutorNotification is broadcast from the worker to every
// executor it owns. Shutdown is currently the only kind; it is modeled as
// a type (rather than a bare close signal) so additional kinds can be added
// without changing every call site.
type OperatorExecutorNotification int

const (
	// Shutdown tells the executor to unwind: cancel its processing loop,
	// run operator.Destroy, and report back on the worker channel.
	Shutdown OperatorExecutorNotification = iota
)

// WorkerNotificationKind tags the single notification an executor sends
// back to its owning worker.
type WorkerNotificationKind int

const (
	// DestroyedOperator reports that an executor finished Destroy and is
	// about to terminate.
	DestroyedOperator WorkerNotificationKind = iota
)

// WorkerNotification is sent on an unbounded channel from an executor back
// to the worker that owns it.
type WorkerNotification struct {
	Kind       WorkerNotificationKind
	OperatorID OperatorID
}

// NewDestroyedOperatorNotification builds the notification an executor
// sends once its Destroy hook has returned.
func NewDestroyedOperatorNotification(id OperatorID) WorkerNotification {
	return WorkerNotification{Kind: DestroyedOperator, OperatorID: id}
}

// EventNotificationKind tags the single notification the lattice's
// producers send to event-runner workers.
type EventNotificationKind int

const (
	// AddedEvents announces that new OperatorEvents are available in the
	// lattice for the named operator.
	AddedEvents EventNotificationKind = iota
)

// EventNotification is broadcast from an executor to every subscribed
// event-runner worker whenever it adds events to the lattice.
type EventNotification struct {
	Kind       EventNotificationKind
	OperatorID OperatorID
}

// EventNotifier is a broadcast channel from executors to event-runner
// workers, adapted from the teacher's streaming.Manager subscribe/
// unsubscribe pattern: any number of workers can subscribe, and Publish
// fans a notification out to all of them without blocking on a slow one.
//
// Event-runner workers are expected to be resilient to a missed
// notification (they re-derive pending work from the lattice itself, using
// the notification only as a wake-up hint), so a full subscriber buffer is
// a logged, non-fatal drop rather than an error. Publish only fails, with
// ErrNotifierDown, once the notifier itself has been shut down — modeling
// the one genuinely fatal case, "the worker has disappeared".
type EventNotifier struct {
	mu          sync.RWMutex
	subscribers map[chan EventNotification]struct{}
	capacity    int
	closed      bool
	logger      *zap.Logger
}

// NewEventNotifier builds an EventNotifier whose per-subscriber buffers
// hold capacity pending notifications before a send is dropped.
func NewEventNotifier(capacity int, logger *zap.Logger) *EventNotifier {
	if capacity <= 0 {
		capacity = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventNotifier{
		subscribers: make(map[chan EventNotification]struct{}),
		capacity:    capacity,
		logger:      logger,
	}
}

// Subscribe registers a new event-runner worker and returns its channel
// plus an unsubscribe function the worker must call when it stops
// listening.
func (n *EventNotifier) Subscribe() (<-chan EventNotification, func()) {
	ch := make(chan EventNotification, n.capacity)
	n.mu.Lock()
	n.subscribers[ch] = struct{}{}
	n.mu.Unlock()

	unsubscribe := func() {
		n.mu.Lock()
		if _, ok := n.subscribers[ch]; ok {
			delete(n.subscribers, ch)
			close(ch)
		}
		n.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish fans notification out to every current subscriber. It returns
// ErrNotifierDown if the notifier has been shut down.
func (n *EventNotifier) Publish(notification EventNotification) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierDown
	}
	for ch := range n.subscribers {
		select {
		case ch <- notification:
		default:
			n.logger.Warn("event notification dropped: subscriber buffer full",
				zap.String("operator_id", notification.OperatorID.String()))
		}
	}
	return nil
}

// Shutdown closes every subscriber channel and marks the notifier down;
// subsequent Publish calls fail with ErrNotifierDown.
func (n *EventNotifier) Shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.subscribers {
		close(ch)
	}
	n.subscribers = make(map[chan EventNotification]struct{})
}
