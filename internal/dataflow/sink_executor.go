package dataflow

import (
	"context"
)

// SinkContext is handed to a sink's stateless OnData callback: a data
// message touches no operator state (the OneInOneOut pattern applies here
// too — only the watermark callback gets state access).
type SinkContext[T any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
}

// StatefulSinkContext is handed to a sink's OnWatermark callback, with
// exclusive access to operator state S. Stateless sinks instantiate S as
// struct{} and ignore State.
type StatefulSinkContext[S any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	State     *SharedState[S]
}

// SinkOperator consumes a single input stream and produces no output —
// persistence, external side effects, and terminal aggregation all live
// here.
type SinkOperator[S any, T any] interface {
	OnData(ctx *SinkContext[T], payload T)
	OnWatermark(ctx *StatefulSinkContext[S])
}

type sinkProcessor[S any, T any] struct {
	config   OperatorConfig
	operator SinkOperator[S, T]
	state    *SharedState[S]
	rs       *ReadStream[T]
	setup    *SetupContext
	stateID  StateID
}

func (p *sinkProcessor[S, T]) OnDataEvents(msg Message[T]) []*OperatorEvent {
	payload, _ := msg.Data()
	ts := msg.Timestamp()
	return []*OperatorEvent{
		NewOperatorEvent(ts, false, PriorityData, ReadOnly, nil, nil, func() {
			p.operator.OnData(&SinkContext[T]{Timestamp: ts, Config: p.config}, payload)
		}),
	}
}

func (p *sinkProcessor[S, T]) OnWatermarkEvent(ts Timestamp) *OperatorEvent {
	return NewOperatorEvent(ts, true, PriorityWatermark, Sequential, nil, []StateID{p.stateID}, func() {
		p.operator.OnWatermark(&StatefulSinkContext[S]{Timestamp: ts, Config: p.config, State: p.state})
	})
}

func (p *sinkProcessor[S, T]) ArmDeadlines(rs *ReadStream[T], ts Timestamp) []DeadlineEvent {
	return DefaultArmDeadlines(p.setup, rs, ts)
}

func (p *sinkProcessor[S, T]) DisarmDeadline(ev DeadlineEvent) bool {
	return DefaultDisarmDeadline(ev, p.rs.ConditionContext())
}

func (p *sinkProcessor[S, T]) Cleanup() {}

// SinkExecutor drives a SinkOperator through the single-input lifecycle.
type SinkExecutor[S any, T any] struct {
	config   OperatorConfig
	operator SinkOperator[S, T]
	rs       *ReadStream[T]
	helper   *ExecutorHelper
	initial  S
}

// NewSinkExecutor builds a SinkExecutor reading from rs, with operator
// state initialized to initial (the zero value of S for stateless sinks).
func NewSinkExecutor[S any, T any](config OperatorConfig, operator SinkOperator[S, T], rs *ReadStream[T], helper *ExecutorHelper, initial S) *SinkExecutor[S, T] {
	return &SinkExecutor[S, T]{config: config, operator: operator, rs: rs, helper: helper, initial: initial}
}

// Execute runs the executor to completion.
func (e *SinkExecutor[S, T]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	state := NewSharedState(e.initial)
	stateID := NewStateID()

	var proc *sinkProcessor[S, T]

	return runSingleInputLifecycle(
		ctx,
		e.helper,
		e.config.OperatorID,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
			proc = &sinkProcessor[S, T]{
				config:  e.config,
				operator: e.operator,
				state:   state,
				rs:      e.rs,
				setup:   setup,
				stateID: stateID,
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
		nil, // a sink has no output stream to emit a terminal watermark on
		rxShutdown,
		txWorker,
	)
}

// processSingleInput is the Go rendition of erdos's process_stream (§4.1):
// select over the helper's fired-deadline channel and the read stream,
// constructing and handing OperatorEvents and DeadlineEvents to the helper
// until the stream closes or ctx is cancelled.
func processSingleInput[T any](ctx context.Context, helper *ExecutorHelper, rs *ReadStream[T], proc MessageProcessor[T]) error {
	for {
		select {
		case ev := <-helper.firedChannel():
			helper.resolveFired(ev, rs.ConditionContext(), proc.DisarmDeadline)

		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-rs.channel():
			if !ok {
				return ErrStreamClosed
			}
			rs.record(msg)

			if msg.IsWatermark() {
				ts := msg.Timestamp()
				if ev := proc.OnWatermarkEvent(ts); ev != nil {
					if err := helper.addEvents([]*OperatorEvent{ev}); err != nil {
						return err
					}
				}
				if ts.IsTop() {
					return ErrStreamClosed
				}
				continue
			}

			ts := msg.Timestamp()
			events := proc.OnDataEvents(msg)
			if err := helper.addEvents(events); err != nil {
				return err
			}
			deadlines := proc.ArmDeadlines(rs, ts)
			helper.manageDeadlines(deadlines)
		}
	}
}
