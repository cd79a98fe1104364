package dataflow

import "sync"

// Message is the tagged union carried on every stream: either a data
// payload stamped with a timestamp, or a watermark announcing that no
// further data below that timestamp will arrive on the stream.
type Message[T any] struct {
	timestamp  Timestamp
	watermark  bool
	payload    T
	hasPayload bool
}

// NewDataMessage builds a data message stamped at ts.
func NewDataMessage[T any](ts Timestamp, payload T) Message[T] {
	return Message[T]{timestamp: ts, payload: payload, hasPayload: true}
}

// NewWatermarkMessage builds a watermark message at ts.
func NewWatermarkMessage[T any](ts Timestamp) Message[T] {
	return Message[T]{timestamp: ts, watermark: true}
}

// Timestamp returns the message's lattice timestamp.
func (m Message[T]) Timestamp() Timestamp { return m.timestamp }

// IsWatermark reports whether m is a watermark rather than data.
func (m Message[T]) IsWatermark() bool { return m.watermark }

// Data returns the message's payload and true, or the zero value and false
// if m is a watermark.
func (m Message[T]) Data() (T, bool) {
	return m.payload, m.hasPayload
}

// ConditionContext tracks, per timestamp, how many data and watermark
// messages a stream has carried — the bookkeeping a Deadline's start/end
// predicates consult to decide whether to arm or satisfy. One
// ConditionContext is owned per stream and shared between its ReadStream
// and WriteStream handles.
type ConditionContext struct {
	mu              sync.Mutex
	dataCounts      map[string]int
	watermarkCounts map[string]int
}

// NewConditionContext returns an empty, ready-to-use ConditionContext.
func NewConditionContext() *ConditionContext {
	return &ConditionContext{
		dataCounts:      make(map[string]int),
		watermarkCounts: make(map[string]int),
	}
}

// RecordData increments the data-message count observed at ts.
func (c *ConditionContext) RecordData(ts Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataCounts[ts.Key()]++
}

// RecordWatermark increments the watermark count observed at ts.
func (c *ConditionContext) RecordWatermark(ts Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watermarkCounts[ts.Key()]++
}

// DataCount returns the number of data messages observed at ts.
func (c *ConditionContext) DataCount(ts Timestamp) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataCounts[ts.Key()]
}

// WatermarkCount returns the number of watermarks observed at ts.
func (c *ConditionContext) WatermarkCount(ts Timestamp) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watermarkCounts[ts.Key()]
}
