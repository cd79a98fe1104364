package dataflow

import "context"

// --- Stateless ---

type statelessTwoInOneOutProcessor[T any, U any, V any] struct {
	config   OperatorConfig
	operator StatelessTwoInOneOut[T, U, V]
	write    *WriteStream[V]
}

func (p *statelessTwoInOneOutProcessor[T, U, V]) OnLeftEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, ReadOnly, nil, nil, func() {
			p.operator.OnDataLeft(&TwoInOneOutContext[V]{Timestamp: ts, Config: p.config, Write: p.write}, payload)
		}),
	}
}

func (p *statelessTwoInOneOutProcessor[T, U, V]) OnRightEvents(msg Message[U]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, ReadOnly, nil, nil, func() {
			p.operator.OnDataRight(&TwoInOneOutContext[V]{Timestamp: ts, Config: p.config, Write: p.write}, payload)
		}),
	}
}

func (p *statelessTwoInOneOutProcessor[T, U, V]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, ReadOnly, nil, nil, func() {
		p.operator.OnWatermark(&TwoInOneOutContext[V]{Timestamp: ts, Config: p.config, Write: p.write})
		if p.config.FlowWatermarks {
			_ = p.write.Send(NewWatermarkMessage[V](ts))
		}
	})
}

func (p *statelessTwoInOneOutProcessor[T, U, V]) Cleanup() {}

// StatelessTwoInOneOutExecutor drives a StatelessTwoInOneOut operator.
type StatelessTwoInOneOutExecutor[T any, U any, V any] struct {
	config   OperatorConfig
	operator StatelessTwoInOneOut[T, U, V]
	left     *ReadStream[T]
	right    *ReadStream[U]
	write    *WriteStream[V]
	helper   *ExecutorHelper
}

// NewStatelessTwoInOneOutExecutor builds the executor.
func NewStatelessTwoInOneOutExecutor[T any, U any, V any](
	config OperatorConfig,
	operator StatelessTwoInOneOut[T, U, V],
	left *ReadStream[T],
	right *ReadStream[U],
	write *WriteStream[V],
	helper *ExecutorHelper,
) *StatelessTwoInOneOutExecutor[T, U, V] {
	return &StatelessTwoInOneOutExecutor[T, U, V]{config: config, operator: operator, left: left, right: right, write: write, helper: helper}
}

// Execute runs the executor to completion.
func (e *StatelessTwoInOneOutExecutor[T, U, V]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	core := newTwoInOneOutCore(e.config, e.left, e.right)
	proc := &statelessTwoInOneOutProcessor[T, U, V]{config: e.config, operator: e.operator, write: e.write}

	return executeTwoInOneOut(ctx, e.helper, e.config.OperatorID, core, proc,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
		},
		func() {
			if d, ok := e.operator.(Destroyable); ok {
				d.Destroy()
			}
		},
		func() {
			if !e.write.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.write)
			}
		},
		rxShutdown, txWorker,
	)
}

// --- Stateful ---

type statefulTwoInOneOutProcessor[S any, T any, U any, V any] struct {
	config   OperatorConfig
	operator StatefulTwoInOneOut[S, T, U, V]
	write    *WriteStream[V]
	state    *SharedState[S]
	stateID  StateID
}

func (p *statefulTwoInOneOutProcessor[S, T, U, V]) OnLeftEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, Sequential, nil, []StateID{p.stateID}, func() {
			p.operator.OnDataLeft(&StatefulTwoInOneOutContext[S, V]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state}, payload)
		}),
	}
}

func (p *statefulTwoInOneOutProcessor[S, T, U, V]) OnRightEvents(msg Message[U]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, Sequential, nil, []StateID{p.stateID}, func() {
			p.operator.OnDataRight(&StatefulTwoInOneOutContext[S, V]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state}, payload)
		}),
	}
}

func (p *statefulTwoInOneOutProcessor[S, T, U, V]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, Sequential, nil, []StateID{p.stateID}, func() {
		p.operator.OnWatermark(&StatefulTwoInOneOutContext[S, V]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state})
		if p.config.FlowWatermarks {
			_ = p.write.Send(NewWatermarkMessage[V](ts))
		}
	})
}

func (p *statefulTwoInOneOutProcessor[S, T, U, V]) Cleanup() {}

// StatefulTwoInOneOutExecutor drives a StatefulTwoInOneOut operator.
type StatefulTwoInOneOutExecutor[S any, T any, U any, V any] struct {
	config   OperatorConfig
	operator StatefulTwoInOneOut[S, T, U, V]
	left     *ReadStream[T]
	right    *ReadStream[U]
	write    *WriteStream[V]
	helper   *ExecutorHelper
	initial  S
}

// NewStatefulTwoInOneOutExecutor builds the executor.
func NewStatefulTwoInOneOutExecutor[S any, T any, U any, V any](
	config OperatorConfig,
	operator StatefulTwoInOneOut[S, T, U, V],
	left *ReadStream[T],
	right *ReadStream[U],
	write *WriteStream[V],
	helper *ExecutorHelper,
	initial S,
) *StatefulTwoInOneOutExecutor[S, T, U, V] {
	return &StatefulTwoInOneOutExecutor[S, T, U, V]{config: config, operator: operator, left: left, right: right, write: write, helper: helper, initial: initial}
}

// Execute runs the executor to completion.
func (e *StatefulTwoInOneOutExecutor[S, T, U, V]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	core := newTwoInOneOutCore(e.config, e.left, e.right)
	proc := &statefulTwoInOneOutProcessor[S, T, U, V]{
		config:  e.config,
		operator: e.operator,
		write:   e.write,
		state:   NewSharedState(e.initial),
		stateID: NewStateID(),
	}

	return executeTwoInOneOut(ctx, e.helper, e.config.OperatorID, core, proc,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
		},
		func() {
			if d, ok := e.operator.(Destroyable); ok {
				d.Destroy()
			}
		},
		func() {
			if !e.write.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.write)
			}
		},
		rxShutdown, txWorker,
	)
}

// --- Parallel ---

type parallelTwoInOneOutProcessor[S AppendableState[S], T any, U any, V any] struct {
	config   OperatorConfig
	operator ParallelTwoInOneOut[S, T, U, V]
	write    *WriteStream[V]
	state    S
	stateID  StateID
}

func (p *parallelTwoInOneOutProcessor[S, T, U, V]) OnLeftEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, Parallel, nil, nil, func() {
			p.operator.OnDataLeft(&ParallelTwoInOneOutContext[S, V]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state}, payload)
		}),
	}
}

func (p *parallelTwoInOneOutProcessor[S, T, U, V]) OnRightEvents(msg Message[U]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, Parallel, nil, nil, func() {
			p.operator.OnDataRight(&ParallelTwoInOneOutContext[S, V]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state}, payload)
		}),
	}
}

func (p *parallelTwoInOneOutProcessor[S, T, U, V]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, Parallel, nil, []StateID{p.stateID}, func() {
		p.operator.OnWatermark(&ParallelTwoInOneOutContext[S, V]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state})
		p.state.CommitAt(ts)
		if p.config.FlowWatermarks {
			_ = p.write.Send(NewWatermarkMessage[V](ts))
		}
	})
}

func (p *parallelTwoInOneOutProcessor[S, T, U, V]) Cleanup() {}

// ParallelTwoInOneOutExecutor drives a ParallelTwoInOneOut operator.
type ParallelTwoInOneOutExecutor[S AppendableState[S], T any, U any, V any] struct {
	config   OperatorConfig
	operator ParallelTwoInOneOut[S, T, U, V]
	left     *ReadStream[T]
	right    *ReadStream[U]
	write    *WriteStream[V]
	helper   *ExecutorHelper
	initial  S
}

// NewParallelTwoInOneOutExecutor builds the executor, with shared state
// initialized to initial — typically a pointer into a concurrency-safe
// structure satisfying AppendableState.
func NewParallelTwoInOneOutExecutor[S AppendableState[S], T any, U any, V any](
	config OperatorConfig,
	operator ParallelTwoInOneOut[S, T, U, V],
	left *ReadStream[T],
	right *ReadStream[U],
	write *WriteStream[V],
	helper *ExecutorHelper,
	initial S,
) *ParallelTwoInOneOutExecutor[S, T, U, V] {
	return &ParallelTwoInOneOutExecutor[S, T, U, V]{config: config, operator: operator, left: left, right: right, write: write, helper: helper, initial: initial}
}

// Execute runs the executor to completion.
func (e *ParallelTwoInOneOutExecutor[S, T, U, V]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	core := newTwoInOneOutCore(e.config, e.left, e.right)
	proc := &parallelTwoInOneOutProcessor[S, T, U, V]{
		config:  e.config,
		operator: e.operator,
		write:   e.write,
		state:   e.initial,
		stateID: NewStateID(),
	}

	return executeTwoInOneOut(ctx, e.helper, e.config.OperatorID, core, proc,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
		},
		func() {
			if d, ok := e.operator.(Destroyable); ok {
				d.Destroy()
			}
		},
		func() {
			if !e.write.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.write)
			}
		},
		rxShutdown, txWorker,
	)
}
