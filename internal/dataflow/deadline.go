package dataflow

import "time"

// ConditionPredicate inspects a stream's ConditionContext at a timestamp to
// decide whether a deadline's start or end condition holds.
type ConditionPredicate func(cc *ConditionContext, ts Timestamp) bool

// DurationFunc computes how long a deadline should run once armed, given
// the condition context it was armed against.
type DurationFunc func(cc *ConditionContext) time.Duration

// DeadlineHandler runs when a deadline fires without its end condition
// having been satisfied. It executes inline on the executor's own
// goroutine, not as a lattice event, so it must be fast and must not panic
// (a recovered panic is logged as ErrUserHookPanic and does not crash the
// executor, but still aborts that firing).
type DeadlineHandler func(cc *ConditionContext, ts Timestamp)

// Deadline is an operator's declaration, made during Setup, that a
// condition on one of its streams must be satisfied within a duration of
// being started, or a handler runs.
type Deadline struct {
	// Name identifies the deadline for logging, metrics, and hot-reloadable
	// duration overrides (internal/deadlineconfig).
	Name string
	// StreamID is the stream this deadline watches.
	StreamID StreamId
	// Start reports whether the deadline should be armed for ts.
	Start ConditionPredicate
	// End reports whether the deadline's condition has since been
	// satisfied, in which case it is disarmed rather than fired.
	End ConditionPredicate
	// Duration computes the deadline's duration once armed.
	Duration DurationFunc
	// Handler runs if the deadline fires with End still unsatisfied.
	Handler DeadlineHandler
}

// AppliesToStream reports whether d watches the given stream.
func (d Deadline) AppliesToStream(id StreamId) bool {
	return d.StreamID == id
}

// DeadlineEvent is a single armed instance of a Deadline, produced by a
// MessageProcessor's ArmDeadlines for one incoming message's timestamp.
type DeadlineEvent struct {
	Name     string
	StreamID StreamId
	Timestamp Timestamp
	Duration time.Duration
	End      ConditionPredicate
	Handler  DeadlineHandler
}

// SetupContext is handed to an operator's Setup hook so it can declare the
// deadlines it wants armed over the lifetime of the executor.
type SetupContext struct {
	streamIDs  []StreamId
	deadlines  []Deadline
}

// NewSetupContext builds a SetupContext scoped to the given stream ids.
func NewSetupContext(streamIDs ...StreamId) *SetupContext {
	return &SetupContext{streamIDs: streamIDs}
}

// StreamIDs returns the stream identifiers available to this operator.
func (s *SetupContext) StreamIDs() []StreamId {
	out := make([]StreamId, len(s.streamIDs))
	copy(out, s.streamIDs)
	return out
}

// Declare registers a Deadline to be armed whenever its Start predicate
// holds for an incoming message.
func (s *SetupContext) Declare(d Deadline) {
	s.deadlines = append(s.deadlines, d)
}

// Deadlines returns every deadline declared so far.
func (s *SetupContext) Deadlines() []Deadline {
	out := make([]Deadline, len(s.deadlines))
	copy(out, s.deadlines)
	return out
}

// DefaultArmDeadlines evaluates every declared deadline's Start predicate
// against the read stream's ConditionContext at ts and returns a
// DeadlineEvent for each one that should arm. Processors that need no
// deadline logic of their own can delegate ArmDeadlines to this directly.
func DefaultArmDeadlines[T any](setup *SetupContext, rs *ReadStream[T], ts Timestamp) []DeadlineEvent {
	if setup == nil {
		return nil
	}
	cc := rs.ConditionContext()
	var events []DeadlineEvent
	for _, d := range setup.Deadlines() {
		if !d.AppliesToStream(rs.ID()) {
			continue
		}
		if !d.Start(cc, ts) {
			continue
		}
		events = append(events, DeadlineEvent{
			Name:      d.Name,
			StreamID:  d.StreamID,
			Timestamp: ts,
			Duration:  d.Duration(cc),
			End:       d.End,
			Handler:   d.Handler,
		})
	}
	return events
}

// DefaultDisarmDeadline evaluates ev's End predicate against cc and reports
// whether the deadline is satisfied (and so should be disarmed rather than
// fired).
func DefaultDisarmDeadline(ev DeadlineEvent, cc *ConditionContext) bool {
	if ev.End == nil {
		return false
	}
	return ev.End(cc, ev.Timestamp)
}
