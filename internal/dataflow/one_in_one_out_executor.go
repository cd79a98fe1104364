package dataflow

import "context"

// OneInOneOutContext is handed to OnData: stateless, like Sink's data
// callback, but carries the output stream so the operator can forward
// (possibly transformed) data downstream.
type OneInOneOutContext[U any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Write     *WriteStream[U]
}

// StatefulOneInOneOutContext is handed to OnWatermark, with exclusive
// access to operator state S as well as the output stream.
type StatefulOneInOneOutContext[S any, U any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Write     *WriteStream[U]
	State     *SharedState[S]
}

// OneInOneOut transforms one input stream into one output stream. OnData is
// stateless (ReadOnly); only OnWatermark touches operator state, matching
// erdos's one_in_one_out_executor.rs exactly (§C.5).
type OneInOneOut[S any, T any, U any] interface {
	OnData(ctx *OneInOneOutContext[U], payload T)
	OnWatermark(ctx *StatefulOneInOneOutContext[S, U])
}

type oneInOneOutProcessor[S any, T any, U any] struct {
	config   OperatorConfig
	operator OneInOneOut[S, T, U]
	state    *SharedState[S]
	write    *WriteStream[U]
	rs       *ReadStream[T]
	setup    *SetupContext
	stateID  StateID
}

func (p *oneInOneOutProcessor[S, T, U]) OnDataEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, ReadOnly, nil, nil, func() {
			p.operator.OnData(&OneInOneOutContext[U]{Timestamp: ts, Config: p.config, Write: p.write}, payload)
		}),
	}
}

func (p *oneInOneOutProcessor[S, T, U]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, Sequential, nil, []StateID{p.stateID}, func() {
		p.operator.OnWatermark(&StatefulOneInOneOutContext[S, U]{Timestamp: ts, Config: p.config, Write: p.write, State: p.state})
		if p.config.FlowWatermarks {
			_ = p.write.Send(NewWatermarkMessage[U](ts))
		}
	})
}

func (p *oneInOneOutProcessor[S, T, U]) ArmDeadlines(rs *ReadStream[T], ts Timestamp) []DeadlineEvent {
	return DefaultArmDeadlines(p.setup, rs, ts)
}

func (p *oneInOneOutProcessor[S, T, U]) DisarmDeadline(ev DeadlineEvent) bool {
	return DefaultDisarmDeadline(ev, p.rs.ConditionContext())
}

func (p *oneInOneOutProcessor[S, T, U]) Cleanup() {}

// OneInOneOutExecutor drives a OneInOneOut operator through the
// single-input lifecycle, forwarding an unconditional terminal watermark
// to its single output on teardown.
type OneInOneOutExecutor[S any, T any, U any] struct {
	config   OperatorConfig
	operator OneInOneOut[S, T, U]
	rs       *ReadStream[T]
	write    *WriteStream[U]
	helper   *ExecutorHelper
	initial  S
}

// NewOneInOneOutExecutor builds the executor for a OneInOneOut operator.
func NewOneInOneOutExecutor[S any, T any, U any](
	config OperatorConfig,
	operator OneInOneOut[S, T, U],
	rs *ReadStream[T],
	write *WriteStream[U],
	helper *ExecutorHelper,
	initial S,
) *OneInOneOutExecutor[S, T, U] {
	return &OneInOneOutExecutor[S, T, U]{config: config, operator: operator, rs: rs, write: write, helper: helper, initial: initial}
}

// Execute runs the executor to completion.
func (e *OneInOneOutExecutor[S, T, U]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	state := NewSharedState(e.initial)
	stateID := NewStateID()

	var proc *oneInOneOutProcessor[S, T, U]

	return runSingleInputLifecycle(
		ctx,
		e.helper,
		e.config.OperatorID,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
			proc = &oneInOneOutProcessor[S, T, U]{
				config:   e.config,
				operator: e.operator,
				state:    state,
				write:    e.write,
				rs:       e.rs,
				setup:    setup,
				stateID:  stateID,
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
			if !e.write.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.write)
			}
		},
		rxShutdown,
		txWorker,
	)
}
