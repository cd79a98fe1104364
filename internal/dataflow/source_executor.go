package dataflow

import "context"

// SourceOperator produces messages with no input stream. Setup and Destroy
// are optional hooks, detected via type assertion (see Setupable/
// Destroyable); Run is mandatory — it's the entire data-producing body of
// the operator.
type SourceOperator[U any] interface {
	// Run writes data and watermark messages to out until it chooses to
	// return, typically driven by a loop inside Run itself or by ctx
	// cancellation.
	Run(ctx context.Context, out *WriteStream[U])
}

// Setupable is implemented by operators that want a Setup hook invoked
// before Run. Optional across every operator shape.
type Setupable interface {
	Setup(setup *SetupContext)
}

// Destroyable is implemented by operators that want a Destroy hook invoked
// after the processing loop exits. Optional across every operator shape.
type Destroyable interface {
	Destroy()
}

// SourceExecutor drives a SourceOperator through Initialize, Synchronize,
// Setup, Run, Destroy, terminal watermark, Terminate. There is no
// process_stream loop (no input), so Run carries the entire data-producing
// lifetime of the operator; it is run in a goroutine so Shutdown can still
// preempt it via context cancellation.
type SourceExecutor[U any] struct {
	config   OperatorConfig
	operator SourceOperator[U]
	out      *WriteStream[U]
	helper   *ExecutorHelper
}

// NewSourceExecutor builds a SourceExecutor for operator, writing to out.
func NewSourceExecutor[U any](config OperatorConfig, operator SourceOperator[U], out *WriteStream[U], helper *ExecutorHelper) *SourceExecutor[U] {
	return &SourceExecutor[U]{config: config, operator: operator, out: out, helper: helper}
}

// Execute runs the executor to completion, returning once Destroy has run
// and the DestroyedOperator notification has been sent.
func (e *SourceExecutor[U]) Execute(
	ctx context.Context,
	rxShutdown <-chan OperatorExecutorNotification,
	txWorker chan<- WorkerNotification,
) error {
	return runSingleInputLifecycle(
		ctx,
		e.helper,
		e.config.OperatorID,
		func(setup *SetupContext) {
			if s, ok := e.operator.(Setupable); ok {
				s.Setup(setup)
			}
		},
		func(spanCtx context.Context) {
			// Run is the entire body for a source; there is no separate
			// process_stream loop, so the "Run" phase intentionally does
			// nothing here and the real work happens in processFn below.
			_ = spanCtx
		},
		func(spanCtx context.Context, _ *SetupContext) error {
			e.operator.Run(spanCtx, e.out)
			return nil
		},
		func() {
			if d, ok := e.operator.(Destroyable); ok {
				d.Destroy()
			}
		},
		func() {
			if !e.out.IsClosed() {
				emitTerminalWatermark(e.helper, e.config, e.out)
			}
		},
		rxShutdown,
		txWorker,
	)
}
