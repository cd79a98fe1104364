package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/latticeflow/dataflow/internal/circuitbreaker"
	"github.com/latticeflow/dataflow/internal/config"
	"github.com/latticeflow/dataflow/internal/dataflow"
	"github.com/latticeflow/dataflow/internal/deadlineconfig"
	"github.com/latticeflow/dataflow/internal/tracing"
)

// tickingSource emits one incrementing integer every interval until ctx is
// cancelled, then returns so the executor can emit the terminal watermark.
type tickingSource struct {
	interval time.Duration
}

func (s tickingSource) Run(ctx context.Context, out *dataflow.WriteStream[int]) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	var i uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts := dataflow.NewVectorTimestamp(i)
			_ = out.Send(dataflow.NewDataMessage(ts, int(i)))
			_ = out.Send(dataflow.NewWatermarkMessage[int](ts))
			i++
		}
	}
}

// doubler is a stateless-data / stateful-watermark transform: it doubles
// every value and counts the watermarks it receives. It also
// declares a deadline on its input stream so a data message without a
// following watermark within the configured duration gets logged.
type doubler struct {
	streamID dataflow.StreamId
	catalog  *deadlineconfig.Catalog
	logger   *zap.Logger
}

func (doubler) OnData(ctx *dataflow.OneInOneOutContext[int], payload int) {
	_ = ctx.Write.Send(dataflow.NewDataMessage(ctx.Timestamp, payload*2))
}

func (doubler) OnWatermark(ctx *dataflow.StatefulOneInOneOutContext[int, int]) {
	ctx.State.With(func(count *int) { *count++ })
}

const doublerWatermarkDeadlineName = "doubler-watermark"

func (d doubler) Setup(setup *dataflow.SetupContext) {
	setup.Declare(dataflow.Deadline{
		Name:     doublerWatermarkDeadlineName,
		StreamID: d.streamID,
		Start: func(cc *dataflow.ConditionContext, ts dataflow.Timestamp) bool {
			return cc.DataCount(ts) > 0 && cc.WatermarkCount(ts) == 0
		},
		End: func(cc *dataflow.ConditionContext, ts dataflow.Timestamp) bool {
			return cc.WatermarkCount(ts) > 0
		},
		Duration: func(cc *dataflow.ConditionContext) time.Duration {
			if d.catalog != nil {
				if dur, ok := d.catalog.Duration(doublerWatermarkDeadlineName); ok {
					return dur
				}
			}
			return 2 * time.Second
		},
		Handler: func(cc *dataflow.ConditionContext, ts dataflow.Timestamp) {
			d.logger.Warn("data message never followed by a watermark within the deadline",
				zap.String("timestamp", ts.Key()))
		},
	})
}

// loggingSink logs every value it receives and counts watermarks in state.
type loggingSink struct {
	logger *zap.Logger
}

func (s loggingSink) OnData(ctx *dataflow.SinkContext[int], payload int) {
	s.logger.Info("sink received value", zap.Int("value", payload))
}

func (s loggingSink) OnWatermark(ctx *dataflow.StatefulSinkContext[int]) {
	ctx.State.With(func(count *int) { *count++ })
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := tracing.Initialize(tracing.Config{
		Enabled:      os.Getenv("TRACING_ENABLED") == "true",
		OTLPEndpoint: config.TracingEndpoint("localhost:4317"),
	}, logger); err != nil {
		logger.Warn("tracing initialization failed, continuing without it", zap.Error(err))
	}

	metricsPort := config.MetricsPort(9090)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:         ":" + strconv.Itoa(metricsPort),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		logger.Info("metrics server listening", zap.Int("port", metricsPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	deadlineCatalogPath := os.Getenv("DEADLINE_CATALOG_PATH")
	if deadlineCatalogPath == "" {
		deadlineCatalogPath = "config/deadlines.yaml"
	}
	deadlineCatalog, err := deadlineconfig.Load(deadlineCatalogPath, logger)
	if err != nil {
		logger.Warn("deadline catalog unavailable, falling back to built-in defaults",
			zap.String("path", deadlineCatalogPath), zap.Error(err))
	} else {
		defer deadlineCatalog.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire a three-operator Source -> OneInOneOut -> Sink pipeline
	// (scenario: identity/transform chain with watermark propagation).
	sourceToDoubler := dataflow.NewStreamId()
	doublerToSink := dataflow.NewStreamId()

	sourceOutCh := make(chan dataflow.Message[int], 16)
	doublerOutCh := make(chan dataflow.Message[int], 16)

	sourceRun := dataflow.NewWriteStream(sourceToDoubler, (chan<- dataflow.Message[int])(sourceOutCh), nil)
	doublerIn := dataflow.NewReadStream(sourceToDoubler, (<-chan dataflow.Message[int])(sourceOutCh), sourceRun.Statistics())
	doublerOut := dataflow.NewWriteStream(doublerToSink, (chan<- dataflow.Message[int])(doublerOutCh), nil)
	sinkIn := dataflow.NewReadStream(doublerToSink, (<-chan dataflow.Message[int])(doublerOutCh), doublerOut.Statistics())

	notifier := dataflow.NewEventNotifier(64, logger)
	barrier := dataflow.NewReadinessBarrier(3, logger)
	// Deadline handlers run through a circuit breaker so a handler that
	// keeps failing (e.g. a downstream it pings is down) stops being
	// invoked rather than destabilizing the executor loop.
	deadlineBreaker := circuitbreaker.NewCircuitBreaker(
		"deadline-handler", circuitbreaker.GetDeadlineHandlerConfig().ToConfig(), logger)

	sourceCfg := dataflow.OperatorConfig{NodeID: 1, OperatorID: dataflow.NewOperatorID(), Name: "source", FlowWatermarks: true}
	doublerCfg := dataflow.OperatorConfig{NodeID: 1, OperatorID: dataflow.NewOperatorID(), Name: "doubler", FlowWatermarks: true}
	sinkCfg := dataflow.OperatorConfig{NodeID: 1, OperatorID: dataflow.NewOperatorID(), Name: "sink", FlowWatermarks: true}

	sourceHelper := dataflow.NewExecutorHelper(sourceCfg, dataflow.NewExecutionLattice(), notifier, barrier, deadlineBreaker, logger)
	doublerHelper := dataflow.NewExecutorHelper(doublerCfg, dataflow.NewExecutionLattice(), notifier, barrier, deadlineBreaker, logger)
	sinkHelper := dataflow.NewExecutorHelper(sinkCfg, dataflow.NewExecutionLattice(), notifier, barrier, deadlineBreaker, logger)

	sourceExec := dataflow.NewSourceExecutor[int](sourceCfg, tickingSource{interval: 500 * time.Millisecond}, sourceRun, sourceHelper)
	doublerOperator := doubler{streamID: doublerIn.ID(), catalog: deadlineCatalog, logger: logger}
	doublerExec := dataflow.NewOneInOneOutExecutor[int, int, int](doublerCfg, doublerOperator, doublerIn, doublerOut, doublerHelper, 0)
	sinkExec := dataflow.NewSinkExecutor[int, int](sinkCfg, loggingSink{logger: logger}, sinkIn, sinkHelper, 0)

	runEventLoop := func(name string, lattice *dataflow.ExecutionLattice, updates <-chan dataflow.EventNotification) {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, ev := range lattice.DrainReady() {
					ev.Callback()
				}
			case _, ok := <-updates:
				if !ok {
					return
				}
			}
		}
	}

	sourceUpdates, unsubSource := notifier.Subscribe()
	doublerUpdates, unsubDoubler := notifier.Subscribe()
	sinkUpdates, unsubSink := notifier.Subscribe()
	defer unsubSource()
	defer unsubDoubler()
	defer unsubSink()

	go runEventLoop("source", sourceHelper.Lattice(), sourceUpdates)
	go runEventLoop("doubler", doublerHelper.Lattice(), doublerUpdates)
	go runEventLoop("sink", sinkHelper.Lattice(), sinkUpdates)

	rxShutdownSource := make(chan dataflow.OperatorExecutorNotification, 1)
	rxShutdownDoubler := make(chan dataflow.OperatorExecutorNotification, 1)
	rxShutdownSink := make(chan dataflow.OperatorExecutorNotification, 1)
	txWorker := make(chan dataflow.WorkerNotification, 3)

	go func() {
		if err := sourceExec.Execute(ctx, rxShutdownSource, txWorker); err != nil {
			logger.Warn("source executor exited with error", zap.Error(err))
		}
	}()
	go func() {
		if err := doublerExec.Execute(ctx, rxShutdownDoubler, txWorker); err != nil {
			logger.Warn("doubler executor exited with error", zap.Error(err))
		}
	}()
	go func() {
		if err := sinkExec.Execute(ctx, rxShutdownSink, txWorker); err != nil {
			logger.Warn("sink executor exited with error", zap.Error(err))
		}
	}()

	logger.Info("dataflow pipeline running", zap.String("pipeline", "source -> doubler -> sink"))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down dataflow pipeline")

	rxShutdownSource <- dataflow.Shutdown
	rxShutdownDoubler <- dataflow.Shutdown
	rxShutdownSink <- dataflow.Shutdown

	for i := 0; i < 3; i++ {
		select {
		case n := <-txWorker:
			logger.Info("operator destroyed", zap.String("operator_id", n.OperatorID.String()))
		case <-time.After(5 * time.Second):
			logger.Warn("timed out waiting for operator shutdown")
		}
	}

	notifier.Shutdown()
	cancel()
	fmt.Println("dataflow pipeline stopped")
}
