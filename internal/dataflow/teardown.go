package dataflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/latticeflow/dataflow/internal/metrics"
)

// emitTerminalWatermark sends a Top watermark on write, if it isn't already
// closed, and records the (non-fatal) failure described by
// ErrTerminalWatermarkSendFailure rather than propagating it — a downstream
// consumer having already gone away during teardown is an expected race,
// not an executor-ending condition.
func emitTerminalWatermark[U any](helper *ExecutorHelper, config OperatorConfig, write *WriteStream[U]) {
	logger := helper.Logger()
	if err := write.Send(NewWatermarkMessage[U](TopTimestamp())); err != nil {
		logger.Warn("terminal watermark send failed",
			zap.Error(fmt.Errorf("%w: %v", ErrTerminalWatermarkSendFailure, err)),
			zap.String("stream", write.ID().String()))
		return
	}
	metrics.TerminalWatermarksEmitted.WithLabelValues(config.Name, write.ID().String()).Inc()
}
