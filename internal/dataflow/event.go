package dataflow

// OperatorType tags how an OperatorEvent's callback is allowed to touch
// operator state, and in turn how the (out-of-scope) lattice-driven event
// runners are permitted to schedule it relative to other events.
type OperatorType int

const (
	// ReadOnly callbacks touch no mutable operator state; the lattice may
	// run any number of them concurrently.
	ReadOnly OperatorType = iota
	// Sequential callbacks require exclusive access to the state ids they
	// declare, serialized against any other event touching the same ids.
	Sequential
	// Parallel callbacks may run concurrently with each other even though
	// they touch shared state, because that state natively supports
	// concurrent mutation (see AppendableState).
	Parallel
)

func (t OperatorType) String() string {
	switch t {
	case ReadOnly:
		return "read_only"
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// OperatorEvent is a priority-ordered callback descriptor the executor
// hands to the lattice. The executor is a producer only: it never invokes
// Callback itself, and never decides scheduling order beyond the Priority
// and read/write footprints it attaches.
type OperatorEvent struct {
	// Timestamp is the lattice point the callback is associated with.
	Timestamp Timestamp
	// IsWatermark distinguishes a watermark callback from a data callback,
	// for ordering purposes (data before watermark at the same timestamp).
	IsWatermark bool
	// Priority orders events at the same timestamp; lower runs first.
	Priority int
	// ReadIDs are the state identifiers this callback reads.
	ReadIDs []StateID
	// WriteIDs are the state identifiers this callback writes; empty for
	// ReadOnly callbacks and for Parallel data callbacks (see §3).
	WriteIDs []StateID
	// Type tags the callback's concurrency contract.
	Type OperatorType
	// Callback is the closure the lattice's event runners invoke. The
	// executor never calls it directly.
	Callback func()
}

// Priority bands used when constructing data and watermark events, matching
// the "data before watermark" ordering invariant.
const (
	PriorityData      = 0
	PriorityWatermark = 10
)

// NewOperatorEvent constructs an OperatorEvent with the given scheduling
// footprint and callback.
func NewOperatorEvent(ts Timestamp, isWatermark bool, priority int, opType OperatorType, readIDs, writeIDs []StateID, callback func()) *OperatorEvent {
	return &OperatorEvent{
		Timestamp:   ts,
		IsWatermark: isWatermark,
		Priority:    priority,
		ReadIDs:     readIDs,
		WriteIDs:    writeIDs,
		Type:        opType,
		Callback:    callback,
	}
}
