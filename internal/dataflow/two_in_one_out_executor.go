package dataflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/latticeflow/dataflow/internal/metrics"
)

// TwoInOneOutContext is handed to every callback of a stateless TwoInOneOut
// operator: no state, just the output stream.
type TwoInOneOutContext[V any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Write     *WriteStream[V]
}

// StatelessTwoInOneOut merges two inputs with no operator state. Every
// callback is ReadOnly.
type StatelessTwoInOneOut[T any, U any, V any] interface {
	OnDataLeft(ctx *TwoInOneOutContext[V], payload T)
	OnDataRight(ctx *TwoInOneOutContext[V], payload U)
	OnWatermark(ctx *TwoInOneOutContext[V])
}

// StatefulTwoInOneOutContext is handed to every callback of a stateful
// TwoInOneOut operator, with exclusive access to state S.
type StatefulTwoInOneOutContext[S any, V any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Write     *WriteStream[V]
	State     *SharedState[S]
}

// StatefulTwoInOneOut merges two inputs with exclusive (Sequential) access
// to shared state S on every callback, including data callbacks — unlike
// OneInOneOut, here data callbacks do touch state, since the merge itself
// (e.g. a join) typically needs it.
type StatefulTwoInOneOut[S any, T any, U any, V any] interface {
	OnDataLeft(ctx *StatefulTwoInOneOutContext[S, V], payload T)
	OnDataRight(ctx *StatefulTwoInOneOutContext[S, V], payload U)
	OnWatermark(ctx *StatefulTwoInOneOutContext[S, V])
}

// ParallelTwoInOneOutContext is handed to a Parallel TwoInOneOut operator's
// callbacks. State is a raw AppendableState value: data callbacks may run
// concurrently with each other and must rely on State's own concurrency
// safety (see AppendableState), matching §3's "data callbacks write none in
// parallel mode" — the lattice's write-id bookkeeping is reserved for the
// watermark callback's CommitAt.
type ParallelTwoInOneOutContext[S AppendableState[S], V any] struct {
	Timestamp Timestamp
	Config    OperatorConfig
	Write     *WriteStream[V]
	State     S
}

// ParallelTwoInOneOut merges two inputs with lock-free, concurrently
// appendable shared state.
type ParallelTwoInOneOut[S AppendableState[S], T any, U any, V any] interface {
	OnDataLeft(ctx *ParallelTwoInOneOutContext[S, V], payload T)
	OnDataRight(ctx *ParallelTwoInOneOutContext[S, V], payload U)
	OnWatermark(ctx *ParallelTwoInOneOutContext[S, V])
}

// twoInOneOutCore is the shared plumbing (config, output, watermark-merge
// bookkeeping) behind all three TwoInOneOut executor variants; each variant
// supplies its own TwoInputMessageProcessor implementation wrapping the
// user operator.
type twoInOneOutCore[T any, U any] struct {
	config       OperatorConfig
	left         *ReadStream[T]
	right        *ReadStream[U]
	leftWater    Timestamp
	rightWater   Timestamp
	mergedWater  Timestamp
}

func newTwoInOneOutCore[T any, U any](config OperatorConfig, left *ReadStream[T], right *ReadStream[U]) *twoInOneOutCore[T, U] {
	return &twoInOneOutCore[T, U]{
		config:      config,
		left:        left,
		right:       right,
		leftWater:   BottomTimestamp(),
		rightWater:  BottomTimestamp(),
		mergedWater: BottomTimestamp(),
	}
}

// executeTwoInOneOut drives any TwoInputMessageProcessor through the dual
// input lifecycle: process_two_streams (§4 — tracks left/right watermarks,
// emits the merged-watermark event only on strict advance), with no
// deadline management (§9(c)).
func executeTwoInOneOut[T any, U any](
	ctx context.Context,
	helper *ExecutorHelper,
	operatorID OperatorID,
	core *twoInOneOutCore[T, U],
	proc TwoInputMessageProcessor[T, U],
	setupFn func(*SetupContext),
	destroyFn func(),
	terminalFn func(),
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	if setupFn != nil {
		// TwoInOneOut operators get no deadline-bearing SetupContext (§9(c)),
		// but Setup is still invoked for symmetry with the other shapes —
		// any Deadline declarations made here are simply never armed.
		setupFn(NewSetupContext(core.left.ID(), core.right.ID()))
	}

	return runDualInputLifecycle(
		ctx,
		helper,
		operatorID,
		nil,
		func(spanCtx context.Context) error {
			return processTwoInputs(spanCtx, helper, core, proc)
		},
		func() {
			if destroyFn != nil {
				destroyFn()
			}
			proc.Cleanup()
		},
		terminalFn,
		rxShutdown,
		txWorker,
	)
}

// processTwoInputs is the Go rendition of erdos's process_two_streams:
// select across both input channels, tracking each side's watermark and
// emitting a merged-watermark event only when min(left, right) strictly
// advances past the last emitted value.
func processTwoInputs[T any, U any](ctx context.Context, helper *ExecutorHelper, core *twoInOneOutCore[T, U], proc TwoInputMessageProcessor[T, U]) error {
	leftCh := core.left.channel()
	rightCh := core.right.channel()
	leftDone, rightDone := false, false

	for !leftDone || !rightDone {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-leftCh:
			if !ok {
				leftDone = true
				leftCh = nil
				continue
			}
			core.left.record(msg)
			if msg.IsWatermark() {
				if err := advanceSide(helper, core, proc, msg.Timestamp(), true); err != nil {
					return err
				}
				if msg.Timestamp().IsTop() {
					leftDone = true
					leftCh = nil
				}
				continue
			}
			if err := helper.addEvents(proc.OnLeftEvents(msg)); err != nil {
				return err
			}

		case msg, ok := <-rightCh:
			if !ok {
				rightDone = true
				rightCh = nil
				continue
			}
			core.right.record(msg)
			if msg.IsWatermark() {
				if err := advanceSide(helper, core, proc, msg.Timestamp(), false); err != nil {
					return err
				}
				if msg.Timestamp().IsTop() {
					rightDone = true
					rightCh = nil
				}
				continue
			}
			if err := helper.addEvents(proc.OnRightEvents(msg)); err != nil {
				return err
			}
		}
	}
	return ErrStreamClosed
}

func advanceSide[T any, U any](helper *ExecutorHelper, core *twoInOneOutCore[T, U], proc TwoInputMessageProcessor[T, U], ts Timestamp, isLeft bool) error {
	if isLeft {
		core.leftWater = ts
	} else {
		core.rightWater = ts
	}

	merged := core.leftWater
	if core.rightWater.Less(merged) {
		merged = core.rightWater
	}

	if !core.mergedWater.Less(merged) {
		return nil
	}
	core.mergedWater = merged

	metrics.MergedWatermarkAdvances.WithLabelValues(core.config.Name).Inc()
	helper.Logger().Debug("merged watermark advanced", zap.String("timestamp", merged.Key()))

	if ev := proc.OnWatermarkEvent(merged); ev != nil {
		return helper.addEvents([]*OperatorEvent{ev})
	}
	return nil
}
