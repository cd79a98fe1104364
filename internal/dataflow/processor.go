package dataflow

// MessageProcessor is the capability set a single-input executor (Sink,
// OneInOneOut, OneInTwoOut) asks its helper to drive. It is the Go rendition
// of erdos's OneInMessageProcessor trait: {message_cb_event,
// watermark_cb_event, arm_deadlines, disarm_deadline} become
// {OnDataEvents, OnWatermarkEvent, ArmDeadlines, DisarmDeadline, Cleanup}.
//
// OnDataEvents returns a slice rather than a single event so that a shape
// may hand more than one lattice entry per message to the helper; every
// processor in this package returns exactly one.
type MessageProcessor[T any] interface {
	// OnDataEvents builds the OperatorEvent(s) for an incoming data
	// message.
	OnDataEvents(msg Message[T]) []*OperatorEvent
	// OnWatermarkEvent builds the OperatorEvent for an incoming watermark.
	OnWatermarkEvent(ts Timestamp) *OperatorEvent
	// ArmDeadlines returns the DeadlineEvents that should be armed for an
	// incoming message at ts.
	ArmDeadlines(rs *ReadStream[T], ts Timestamp) []DeadlineEvent
	// DisarmDeadline reports whether ev's end condition now holds.
	DisarmDeadline(ev DeadlineEvent) bool
	// Cleanup releases any resources the processor holds once the
	// executor's processing loop has exited.
	Cleanup()
}

// TwoInputMessageProcessor is the capability set TwoInOneOut executors ask
// their helper to drive, modeled on erdos's TwoInMessageProcessor trait.
// Per §9(c), two-input executors do not participate in deadline management,
// so this interface has no Arm/Disarm methods.
type TwoInputMessageProcessor[T any, U any] interface {
	// OnLeftEvents builds the OperatorEvent(s) for a left-input data
	// message.
	OnLeftEvents(msg Message[T]) []*OperatorEvent
	// OnRightEvents builds the OperatorEvent(s) for a right-input data
	// message.
	OnRightEvents(msg Message[U]) []*OperatorEvent
	// OnWatermarkEvent builds the OperatorEvent for the merged watermark
	// once it strictly advances.
	OnWatermarkEvent(ts Timestamp) *OperatorEvent
	// Cleanup releases any resources the processor holds.
	Cleanup()
}
