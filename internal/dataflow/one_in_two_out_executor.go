package dataflow

import (
	"context"
	"sync"
)

// --- Sequential ---

// StatefulOneInTwoOutContext is handed to every callback of a Sequential
// OneInTwoOut operator. Unlike OneInOneOut, both OnData and OnWatermark get
// state access here: erdos's (non-parallel) OneInTwoOutMessageProcessor
// takes both an operator-body lock and a state lock around every callback,
// not just the watermark one (§C.4).
type StatefulOneInTwoOutContext[S any, V any, W any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Left      *WriteStream[V]
	Right     *WriteStream[W]
	State     *SharedState[S]
}

// SequentialOneInTwoOut fans one input into two outputs with exclusive,
// serialized access to operator state on every callback.
type SequentialOneInTwoOut[S any, T any, V any, W any] interface {
	OnData(ctx *StatefulOneInTwoOutContext[S, V, W], payload T)
	OnWatermark(ctx *StatefulOneInTwoOutContext[S, V, W])
}

type sequentialOneInTwoOutProcessor[S any, T any, V any, W any] struct {
	config    OperatorConfig
	operator  SequentialOneInTwoOut[S, T, V, W]
	state     *SharedState[S]
	stateID   StateID
	left      *WriteStream[V]
	right     *WriteStream[W]
	bodyMu    *sync.Mutex
	rs        *ReadStream[T]
	setup     *SetupContext
}

func (p *sequentialOneInTwoOutProcessor[S, T, V, W]) OnDataEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, Sequential, nil, []StateID{p.stateID}, func() {
			p.bodyMu.Lock()
			defer p.bodyMu.Unlock()
			p.operator.OnData(&StatefulOneInTwoOutContext[S, V, W]{Timestamp: ts, Config: p.config, Left: p.left, Right: p.right, State: p.state}, payload)
		}),
	}
}

func (p *sequentialOneInTwoOutProcessor[S, T, V, W]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, Sequential, nil, []StateID{p.stateID}, func() {
		p.bodyMu.Lock()
		defer p.bodyMu.Unlock()
		p.operator.OnWatermark(&StatefulOneInTwoOutContext[S, V, W]{Timestamp: ts, Config: p.config, Left: p.left, Right: p.right, State: p.state})
		if p.config.FlowWatermarks {
			_ = p.left.Send(NewWatermarkMessage[V](ts))
			_ = p.right.Send(NewWatermarkMessage[W](ts))
		}
	})
}

func (p *sequentialOneInTwoOutProcessor[S, T, V, W]) ArmDeadlines(rs *ReadStream[T], ts Timestamp) []DeadlineEvent {
	return DefaultArmDeadlines(p.setup, rs, ts)
}

func (p *sequentialOneInTwoOutProcessor[S, T, V, W]) DisarmDeadline(ev DeadlineEvent) bool {
	return DefaultDisarmDeadline(ev, p.rs.ConditionContext())
}

func (p *sequentialOneInTwoOutProcessor[S, T, V, W]) Cleanup() {}

// SequentialOneInTwoOutExecutor drives a SequentialOneInTwoOut operator.
type SequentialOneInTwoOutExecutor[S any, T any, V any, W any] struct {
	config   OperatorConfig
	operator SequentialOneInTwoOut[S, T, V, W]
	rs       *ReadStream[T]
	left     *WriteStream[V]
	right    *WriteStream[W]
	helper   *ExecutorHelper
	initial  S
}

// NewSequentialOneInTwoOutExecutor builds the executor.
func NewSequentialOneInTwoOutExecutor[S any, T any, V any, W any](
	config OperatorConfig,
	operator SequentialOneInTwoOut[S, T, V, W],
	rs *ReadStream[T],
	left *WriteStream[V],
	right *WriteStream[W],
	helper *ExecutorHelper,
	initial S,
) *SequentialOneInTwoOutExecutor[S, T, V, W] {
	return &SequentialOneInTwoOutExecutor[S, T, V, W]{config: config, operator: operator, rs: rs, left: left, right: right, helper: helper, initial: initial}
}

// Execute runs the executor to completion.
func (e *SequentialOneInTwoOutExecutor[S, T, V, W]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	var proc *sequentialOneInTwoOutProcessor[S, T, V, W]
	bodyMu := &sync.Mutex{}
	state := NewSharedState(e.initial)
	stateID := NewStateID()

	return runSingleInputLifecycle(
		ctx,
		e.helper,
		e.config.OperatorID,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
			proc = &sequentialOneInTwoOutProcessor[S, T, V, W]{
				config:   e.config,
				operator: e.operator,
				state:    state,
				stateID:  stateID,
				left:     e.left,
				right:    e.right,
				bodyMu:   bodyMu,
				rs:       e.rs,
				setup:    setup,
			}
		},
		nil,
		func(spanCtx context.Context, _ *SetupContext) error {
			return processSingleInput(spanCtx, e.helper, e.rs, proc)
		},
		func() {
			if d, ok := e.operator.(Destroyable); ok {
				d.Destroy()
			}
			proc.Cleanup()
		},
		func() {
			if !e.left.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.left)
			}
			if !e.right.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.right)
			}
		},
		rxShutdown,
		txWorker,
	)
}

// --- Parallel ---

// ParallelOneInTwoOutContext is handed to a Parallel OneInTwoOut operator's
// callbacks. State is a raw AppendableState value shared via a pointer-like
// type with no surrounding lock — safe because data callbacks may run
// concurrently and State itself provides the concurrency safety (§C.3).
type ParallelOneInTwoOutContext[S AppendableState[S], V any, W any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Left      *WriteStream[V]
	Right     *WriteStream[W]
	State     S
}

// ParallelOneInTwoOut fans one input into two outputs with lock-free,
// concurrently appendable shared state.
type ParallelOneInTwoOut[S AppendableState[S], T any, V any, W any] interface {
	OnData(ctx *ParallelOneInTwoOutContext[S, V, W], payload T)
	OnWatermark(ctx *ParallelOneInTwoOutContext[S, V, W])
}

type parallelOneInTwoOutProcessor[S AppendableState[S], T any, V any, W any] struct {
	config   OperatorConfig
	operator ParallelOneInTwoOut[S, T, V, W]
	state    S
	stateID  StateID
	left     *WriteStream[V]
	right    *WriteStream[W]
	rs       *ReadStream[T]
	setup    *SetupContext
}

func (p *parallelOneInTwoOutProcessor[S, T, V, W]) OnDataEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		// Data callbacks write none in parallel mode (§3): the lattice never
		// serializes them against each other, relying on State's own
		// concurrency safety instead.
		NewOperatorEvent(ts, false, PriorityData, Parallel, nil, nil, func() {
			p.operator.OnData(&ParallelOneInTwoOutContext[S, V, W]{Timestamp: ts, Config: p.config, Left: p.left, Right: p.right, State: p.state}, payload)
		}),
	}
}

func (p *parallelOneInTwoOutProcessor[S, T, V, W]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, Parallel, nil, []StateID{p.stateID}, func() {
		p.operator.OnWatermark(&ParallelOneInTwoOutContext[S, V, W]{Timestamp: ts, Config: p.config, Left: p.left, Right: p.right, State: p.state})
		p.state.CommitAt(ts)
		if p.config.FlowWatermarks {
			_ = p.left.Send(NewWatermarkMessage[V](ts))
			_ = p.right.Send(NewWatermarkMessage[W](ts))
		}
	})
}

func (p *parallelOneInTwoOutProcessor[S, T, V, W]) ArmDeadlines(rs *ReadStream[T], ts Timestamp) []DeadlineEvent {
	return DefaultArmDeadlines(p.setup, rs, ts)
}

func (p *parallelOneInTwoOutProcessor[S, T, V, W]) DisarmDeadline(ev DeadlineEvent) bool {
	return DefaultDisarmDeadline(ev, p.rs.ConditionContext())
}

func (p *parallelOneInTwoOutProcessor[S, T, V, W]) Cleanup() {}

// ParallelOneInTwoOutExecutor drives a ParallelOneInTwoOut operator.
type ParallelOneInTwoOutExecutor[S AppendableState[S], T any, V any, W any] struct {
	config   OperatorConfig
	operator ParallelOneInTwoOut[S, T, V, W]
	rs       *ReadStream[T]
	left     *WriteStream[V]
	right    *WriteStream[W]
	helper   *ExecutorHelper
	initial  S
}

// NewParallelOneInTwoOutExecutor builds the executor, with shared state
// initialized to initial.
func NewParallelOneInTwoOutExecutor[S AppendableState[S], T any, V any, W any](
	config OperatorConfig,
	operator ParallelOneInTwoOut[S, T, V, W],
	rs *ReadStream[T],
	left *WriteStream[V],
	right *WriteStream[W],
	helper *ExecutorHelper,
	initial S,
) *ParallelOneInTwoOutExecutor[S, T, V, W] {
	return &ParallelOneInTwoOutExecutor[S, T, V, W]{config: config, operator: operator, rs: rs, left: left, right: right, helper: helper, initial: initial}
}

// Execute runs the executor to completion.
func (e *ParallelOneInTwoOutExecutor[S, T, V, W]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	var proc *parallelOneInTwoOutProcessor[S, T, V, W]

	return runSingleInputLifecycle(
		ctx,
		e.helper,
		e.config.OperatorID,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
			proc = &parallelOneInTwoOutProcessor[S, T, V, W]{
				config:   e.config,
				operator: e.operator,
				state:    e.initial,
				stateID:  NewStateID(),
				left:     e.left,
				right:    e.right,
				rs:       e.rs,
				setup:    setup,
			}
		},
		nil,
		func(spanCtx context.Context, _ *SetupContext) error {
			return processSingleInput(spanCtx, e.helper, e.rs, proc)
		},
		func() {
			if d, ok := e.operator.(Destroyable); ok {
				d.Destroy()
			}
			proc.Cleanup()
		},
		func() {
			if !e.left.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.left)
			}
			if !e.right.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.right)
			}
		},
		rxShutdown,
		txWorker,
	)
}
