package dataflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/latticeflow/dataflow/internal/circuitbreaker"
	"github.com/latticeflow/dataflow/internal/metrics"
)

// deadlineKey pairs a stream and timestamp into the dedup key erdos uses
// for its stream_timestamp_to_key_map (§C.1 of SPEC_FULL.md): at most one
// armed deadline exists for a given (stream, timestamp) at a time.
type deadlineKey struct {
	stream StreamId
	tsKey  string
}

type armedDeadline struct {
	event DeadlineEvent
	timer *time.Timer
}

// ExecutorHelper is the shared machinery every concrete executor drives:
// the peer-readiness barrier behind synchronize(), the single- and
// dual-input select loops, and deadline arming/firing. It owns no operator
// state; concrete executors own exactly one ExecutorHelper each.
type ExecutorHelper struct {
	operatorID OperatorID
	config     OperatorConfig
	lattice    *ExecutionLattice
	notifier   *EventNotifier
	barrier    *ReadinessBarrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger

	mu     sync.Mutex
	active map[deadlineKey]*armedDeadline
	fired  chan DeadlineEvent
}

// NewExecutorHelper builds the helper a concrete executor drives. barrier
// may be nil if the executor has no peers to synchronize with (e.g. a
// standalone test harness); breaker may be nil to invoke deadline handlers
// without circuit-breaker protection.
func NewExecutorHelper(
	config OperatorConfig,
	lattice *ExecutionLattice,
	notifier *EventNotifier,
	barrier *ReadinessBarrier,
	breaker *circuitbreaker.CircuitBreaker,
	logger *zap.Logger,
) *ExecutorHelper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker != nil {
		circuitbreaker.GlobalMetricsCollector.RegisterCircuitBreaker(config.Name, "deadline-handler", breaker)
	}
	return &ExecutorHelper{
		operatorID: config.OperatorID,
		config:     config,
		lattice:    lattice,
		notifier:   notifier,
		barrier:    barrier,
		breaker:    breaker,
		logger:     logger.With(zap.String("operator", config.Name), zap.Int("node_id", config.NodeID)),
		active:     make(map[deadlineKey]*armedDeadline),
		fired:      make(chan DeadlineEvent, 64),
	}
}

// Synchronize blocks until every peer operator has reported ready, via the
// helper's ReadinessBarrier, replacing the placeholder fixed delay the
// distilled spec flags as Open Question (a). If no barrier was configured,
// Synchronize returns immediately without waiting on any peer.
func (h *ExecutorHelper) Synchronize(ctx context.Context) error {
	if h.barrier == nil {
		return nil
	}
	h.barrier.MarkReady(h.operatorID)
	return h.barrier.Wait(ctx)
}

// addEvents hands events to the lattice and publishes a wake-up
// notification to event-runner workers. A Publish failure is fatal
// (ErrNotifierDown): the worker side has disappeared and there is no
// correct way to continue.
func (h *ExecutorHelper) addEvents(events []*OperatorEvent) error {
	if len(events) == 0 {
		return nil
	}
	h.lattice.AddEvents(events...)
	for _, ev := range events {
		kind := "data"
		if ev.IsWatermark {
			kind = "watermark"
		}
		metrics.EventsInserted.WithLabelValues(h.config.Name, kind).Inc()
	}
	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.Publish(EventNotification{Kind: AddedEvents, OperatorID: h.operatorID}); err != nil {
		metrics.NotifierSendFailures.WithLabelValues(h.config.Name).Inc()
		h.logger.Error("event notifier publish failed, treating as fatal", zap.Error(err))
		return fmt.Errorf("publish event notification: %w", err)
	}
	return nil
}

// manageDeadlines dedups and arms the given DeadlineEvents. A DeadlineEvent
// whose (stream, timestamp) key is already armed is skipped, matching
// erdos's single-armed-deadline-per-key invariant.
func (h *ExecutorHelper) manageDeadlines(events []DeadlineEvent) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		key := deadlineKey{stream: ev.StreamID, tsKey: ev.Timestamp.Key()}
		if _, exists := h.active[key]; exists {
			continue
		}
		ev := ev
		timer := time.AfterFunc(ev.Duration, func() {
			select {
			case h.fired <- ev:
			default:
				h.logger.Warn("deadline fired channel full, dropping firing",
					zap.String("deadline", ev.Name))
			}
		})
		h.active[key] = &armedDeadline{event: ev, timer: timer}
		metrics.DeadlinesArmed.WithLabelValues(h.config.Name).Inc()
	}
}

// firedChannel lets concrete executors pull one fired deadline at a time
// out of the helper's internal channel inside their select loop.
func (h *ExecutorHelper) firedChannel() <-chan DeadlineEvent {
	return h.fired
}

// resolveFired processes one DeadlineEvent that has fired: it removes the
// (stream, timestamp) entry from the active map, then either disarms
// (satisfied) or invokes the handler (missed), recovering from and logging
// any panic in user code.
func (h *ExecutorHelper) resolveFired(ev DeadlineEvent, cc *ConditionContext, disarm func(DeadlineEvent) bool) {
	key := deadlineKey{stream: ev.StreamID, tsKey: ev.Timestamp.Key()}

	h.mu.Lock()
	armed, ok := h.active[key]
	if ok {
		delete(h.active, key)
	}
	h.mu.Unlock()

	if !ok {
		metrics.DeadlineUnknownKey.WithLabelValues(h.config.Name).Inc()
		h.logger.Warn("deadline fired for unknown key", zap.Error(ErrDeadlineUnknownKey),
			zap.String("stream", ev.StreamID.String()))
		return
	}
	armed.timer.Stop()

	if disarm(ev) {
		metrics.DeadlinesDisarmed.WithLabelValues(h.config.Name).Inc()
		h.logger.Debug("deadline disarmed", zap.String("deadline", ev.Name))
		return
	}

	metrics.DeadlinesFired.WithLabelValues(h.config.Name).Inc()
	h.invokeHandler(ev, cc)
}

// invokeHandler runs a fired deadline's handler inline, guarded against
// panics and, if configured, a circuit breaker so a repeatedly failing
// handler stops being invoked rather than destabilizing the executor loop.
func (h *ExecutorHelper) invokeHandler(ev DeadlineEvent, cc *ConditionContext) {
	run := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("deadline handler panicked", zap.Any("recover", r),
					zap.String("deadline", ev.Name))
				err = fmt.Errorf("%w: %v", ErrUserHookPanic, r)
			}
		}()
		ev.Handler(cc, ev.Timestamp)
		return nil
	}

	if h.breaker == nil {
		_ = run()
		return
	}
	err := h.breaker.Execute(context.Background(), run)
	circuitbreaker.GlobalMetricsCollector.RecordRequest(h.config.Name, "deadline-handler", h.breaker.State(), err == nil)
	if err != nil {
		h.logger.Warn("deadline handler invocation failed", zap.Error(err),
			zap.String("deadline", ev.Name))
	}
}

// cancelActiveDeadlines stops every timer still armed. Called during
// teardown so no deadline fires after the executor has begun Destroy.
func (h *ExecutorHelper) cancelActiveDeadlines() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, armed := range h.active {
		armed.timer.Stop()
		delete(h.active, key)
	}
}

// Logger returns the helper's scoped logger, for concrete executors that
// want to log using the same fields.
func (h *ExecutorHelper) Logger() *zap.Logger { return h.logger }

// Lattice returns the shared lattice this helper publishes events to.
func (h *ExecutorHelper) Lattice() *ExecutionLattice { return h.lattice }
