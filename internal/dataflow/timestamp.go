package dataflow

import (
	"fmt"
	"strings"
)

// TimestampKind distinguishes the three points of the timestamp lattice.
type TimestampKind int

const (
	// KindBottom is the least element; every vector timestamp is greater.
	KindBottom TimestampKind = iota
	// KindVector is a finite, non-empty vector of natural numbers, ordered
	// lexicographically.
	KindVector
	// KindTop is the greatest element, used to mark stream closure.
	KindTop
)

// Timestamp is a point in the executor's progress lattice: Bottom, a finite
// vector of naturals, or Top. Vector timestamps compare lexicographically;
// Bottom is less than every vector, and Top is greater than every vector.
type Timestamp struct {
	kind   TimestampKind
	vector []uint64
}

// BottomTimestamp returns the lattice's least element.
func BottomTimestamp() Timestamp {
	return Timestamp{kind: KindBottom}
}

// TopTimestamp returns the lattice's greatest element.
func TopTimestamp() Timestamp {
	return Timestamp{kind: KindTop}
}

// NewVectorTimestamp builds a vector timestamp from its components. The
// vector must be non-empty; callers that need a scalar timestamp pass a
// single-element vector.
func NewVectorTimestamp(components ...uint64) Timestamp {
	if len(components) == 0 {
		panic("dataflow: vector timestamp must have at least one component")
	}
	v := make([]uint64, len(components))
	copy(v, components)
	return Timestamp{kind: KindVector, vector: v}
}

// IsBottom reports whether t is the lattice's least element.
func (t Timestamp) IsBottom() bool { return t.kind == KindBottom }

// IsTop reports whether t is the lattice's greatest element.
func (t Timestamp) IsTop() bool { return t.kind == KindTop }

// IsVector reports whether t is a finite vector timestamp.
func (t Timestamp) IsVector() bool { return t.kind == KindVector }

// Vector returns the underlying components of a vector timestamp. It is
// only valid when IsVector is true; callers must check first.
func (t Timestamp) Vector() []uint64 {
	v := make([]uint64, len(t.vector))
	copy(v, t.vector)
	return v
}

// Clone returns an independent copy of t, safe to hand to concurrent
// callbacks without aliasing the receiver's backing vector.
func (t Timestamp) Clone() Timestamp {
	if t.kind != KindVector {
		return Timestamp{kind: t.kind}
	}
	return NewVectorTimestamp(t.vector...)
}

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater than
// other, under the lattice order: Bottom < any Vector < Top, and Vectors
// compare lexicographically component-wise (shorter vectors sort before
// longer ones that share a common prefix).
func (t Timestamp) Compare(other Timestamp) int {
	if t.kind != other.kind {
		if t.kind < other.kind {
			return -1
		}
		return 1
	}
	if t.kind != KindVector {
		return 0
	}
	n := len(t.vector)
	if len(other.vector) < n {
		n = len(other.vector)
	}
	for i := 0; i < n; i++ {
		if t.vector[i] != other.vector[i] {
			if t.vector[i] < other.vector[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(t.vector) < len(other.vector):
		return -1
	case len(t.vector) > len(other.vector):
		return 1
	}
	return 0
}

// Less reports whether t strictly precedes other in the lattice order.
func (t Timestamp) Less(other Timestamp) bool { return t.Compare(other) < 0 }

// Equal reports whether t and other are the same lattice point.
func (t Timestamp) Equal(other Timestamp) bool { return t.Compare(other) == 0 }

// Key returns a deterministic string encoding of t, suitable for use as a
// map key (Timestamp itself holds a slice and so is not comparable).
func (t Timestamp) Key() string {
	switch t.kind {
	case KindBottom:
		return "B"
	case KindTop:
		return "T"
	default:
		parts := make([]string, len(t.vector))
		for i, v := range t.vector {
			parts[i] = fmt.Sprintf("%d", v)
		}
		return "V:" + strings.Join(parts, ",")
	}
}

func (t Timestamp) String() string { return t.Key() }
