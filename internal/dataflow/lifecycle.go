package dataflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/latticeflow/dataflow/internal/metrics"
	"github.com/latticeflow/dataflow/internal/tracing"
)

// Lifecycle phase names used for metrics.ExecutorLifecycleDuration and
// tracing spans, matching §4.2's contract: Initialize, Synchronize, Setup,
// Run, Loop, Destroy, Cleanup, Terminate.
const (
	PhaseInitialize  = "initialize"
	PhaseSynchronize = "synchronize"
	PhaseSetup       = "setup"
	PhaseRun         = "run"
	PhaseLoop        = "loop"
	PhaseDestroy     = "destroy"
	PhaseCleanup     = "cleanup"
	PhaseTerminate   = "terminate"
)

// runPhase starts a span named for phase, runs fn, and records fn's
// wall-clock duration against metrics.ExecutorLifecycleDuration — one span
// and one histogram observation per lifecycle phase, per operator name.
func runPhase(ctx context.Context, name, phase string, fn func(context.Context)) {
	spanCtx, span := tracing.StartSpan(ctx, fmt.Sprintf("executor.%s", phase))
	defer span.End()

	start := time.Now()
	fn(spanCtx)
	metrics.ExecutorLifecycleDuration.WithLabelValues(name, phase).Observe(time.Since(start).Seconds())
}

// runSingleInputLifecycle drives the common contract shared by Sink,
// OneInOneOut, and OneInTwoOut executors (§4.2, §C.5): synchronize, build a
// SetupContext and invoke the optional Setup hook, invoke the optional Run
// hook, race process_stream against the worker-shutdown notification,
// invoke the optional Destroy hook, emit a terminal watermark if the output
// hasn't already closed, then report DestroyedOperator.
//
// processFn implements the per-message event-construction and deadline
// logic (process_stream's body) for one shape; it is called once, given the
// SetupContext built from setupFn, and returns when the input stream closes
// or ctx is cancelled.
func runSingleInputLifecycle(
	ctx context.Context,
	helper *ExecutorHelper,
	operatorID OperatorID,
	setupFn func(*SetupContext),
	runFn func(context.Context),
	processFn func(context.Context, *SetupContext) error,
	destroyFn func(),
	terminalFn func(),
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	logger := helper.Logger()
	name := helper.config.Name

	var syncErr error
	runPhase(ctx, name, PhaseSynchronize, func(spanCtx context.Context) {
		syncErr = helper.Synchronize(spanCtx)
	})
	if syncErr != nil {
		return fmt.Errorf("synchronize: %w", syncErr)
	}

	setup := NewSetupContext()
	runPhase(ctx, name, PhaseSetup, func(context.Context) {
		if setupFn != nil {
			setupFn(setup)
		}
	})

	runPhase(ctx, name, PhaseRun, func(spanCtx context.Context) {
		if runFn != nil {
			runFn(spanCtx)
		}
	})

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	done := make(chan error, 1)
	go func() {
		var err error
		runPhase(loopCtx, name, PhaseLoop, func(spanCtx context.Context) {
			err = processFn(spanCtx, setup)
		})
		done <- err
	}()

	var loopErr error
	select {
	case loopErr = <-done:
	case <-rxShutdown:
		cancelLoop()
		loopErr = <-done
	}

	helper.cancelActiveDeadlines()

	runPhase(ctx, name, PhaseDestroy, func(context.Context) {
		if destroyFn != nil {
			destroyFn()
		}
	})

	runPhase(ctx, name, PhaseCleanup, func(context.Context) {
		if terminalFn != nil {
			terminalFn()
		}
	})

	runPhase(ctx, name, PhaseTerminate, func(context.Context) {
		if txWorker != nil {
			txWorker <- NewDestroyedOperatorNotification(operatorID)
		}
	})

	if loopErr != nil && loopErr != ErrStreamClosed && loopErr != context.Canceled {
		logger.Warn("executor loop exited with error", zap.Error(loopErr))
		return loopErr
	}
	return nil
}

// runDualInputLifecycle is runSingleInputLifecycle's counterpart for
// TwoInOneOut executors. Per §9(c) / SPEC_FULL.md §E(c), two-input executors never call
// ArmDeadlines/manage_deadlines, so there is no SetupContext and no
// deadline teardown step.
func runDualInputLifecycle(
	ctx context.Context,
	helper *ExecutorHelper,
	operatorID OperatorID,
	runFn func(context.Context),
	processFn func(context.Context) error,
	destroyFn func(),
	terminalFn func(),
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	logger := helper.Logger()
	name := helper.config.Name

	var syncErr error
	runPhase(ctx, name, PhaseSynchronize, func(spanCtx context.Context) {
		syncErr = helper.Synchronize(spanCtx)
	})
	if syncErr != nil {
		return fmt.Errorf("synchronize: %w", syncErr)
	}

	runPhase(ctx, name, PhaseRun, func(spanCtx context.Context) {
		if runFn != nil {
			runFn(spanCtx)
		}
	})

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	done := make(chan error, 1)
	go func() {
		var err error
		runPhase(loopCtx, name, PhaseLoop, func(spanCtx context.Context) {
			err = processFn(spanCtx)
		})
		done <- err
	}()

	var loopErr error
	select {
	case loopErr = <-done:
	case <-rxShutdown:
		cancelLoop()
		loopErr = <-done
	}

	runPhase(ctx, name, PhaseDestroy, func(context.Context) {
		if destroyFn != nil {
			destroyFn()
		}
	})

	runPhase(ctx, name, PhaseCleanup, func(context.Context) {
		if terminalFn != nil {
			terminalFn()
		}
	})

	runPhase(ctx, name, PhaseTerminate, func(context.Context) {
		if txWorker != nil {
			txWorker <- NewDestroyedOperatorNotification(operatorID)
		}
	})

	if loopErr != nil && loopErr != ErrStreamClosed && loopErr != context.Canceled {
		logger.Warn("executor loop exited with error", zap.Error(loopErr))
		return loopErr
	}
	return nil
}
