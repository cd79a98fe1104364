package dataflow

import "errors"

// Sentinel errors modeling the executor's error kinds. StreamClosed and
// Shutdown are ordinary, expected loop-exit conditions; NotifierDown is
// fatal (the worker side has disappeared); DeadlineUnknownKey and
// TerminalWatermarkSendFailure are logged and otherwise non-fatal, so
// callers that encounter them are not required to abort.
var (
	// ErrStreamClosed is returned by ReadStream.Read once its source
	// channel has been closed and drained.
	ErrStreamClosed = errors.New("dataflow: stream closed")

	// ErrShutdown indicates the executor observed a Shutdown notification
	// from the worker and is unwinding cooperatively.
	ErrShutdown = errors.New("dataflow: shutdown requested")

	// ErrNotifierDown is returned by EventNotifier.Publish when the
	// notifier has been closed; the caller should treat this as fatal.
	ErrNotifierDown = errors.New("dataflow: event notifier is down")

	// ErrDeadlineUnknownKey is reported (not returned) when a deadline
	// timer fires for a (stream, timestamp) key no longer in the active
	// map — it was already disarmed or the operator is mid-destroy.
	ErrDeadlineUnknownKey = errors.New("dataflow: deadline fired for unknown key")

	// ErrUserHookPanic wraps a recovered panic from operator or deadline
	// handler user code.
	ErrUserHookPanic = errors.New("dataflow: user hook panicked")

	// ErrTerminalWatermarkSendFailure is reported when the Top watermark
	// sent during teardown fails because a downstream consumer has
	// already gone away. Logged, non-fatal.
	ErrTerminalWatermarkSendFailure = errors.New("dataflow: terminal watermark send failed")
)
