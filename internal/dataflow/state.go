package dataflow

import "sync"

// SharedState guards operator state of type S behind a mutex, for Sequential
// callbacks that need exclusive access. With locks, runs fn, and unlocks —
// callers never touch the mutex directly, so a callback can't forget to
// unlock.
type SharedState[S any] struct {
	mu    sync.Mutex
	value S
}

// NewSharedState wraps an initial value for exclusive access.
func NewSharedState[S any](initial S) *SharedState[S] {
	return &SharedState[S]{value: initial}
}

// With runs fn with exclusive access to the guarded value.
func (s *SharedState[S]) With(fn func(*S)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
}

// AppendableState is the contract a Parallel executor's state type must
// satisfy: concurrent, lock-free Append from multiple data callbacks
// running at once, and a single CommitAt call from the watermark callback
// that finalizes everything appended for a timestamp. Adapted from erdos's
// AppendableStateT (§C.3): Go closures capture a shared *S directly, with
// no surrounding mutex, because S itself is responsible for safe concurrent
// mutation.
type AppendableState[W any] interface {
	// Append records one data item's contribution to state, and must be
	// safe to call concurrently with itself.
	Append(item W)
	// CommitAt finalizes everything appended for ts, called once from the
	// watermark callback after all of that timestamp's data callbacks have
	// run.
	CommitAt(ts Timestamp)
}
