// Package dataflow implements the operator execution core: the executors,
// helper, and event lattice that drive a dataflow graph's operators through
// their lifecycle and route messages between them.
package dataflow

import "github.com/google/uuid"

// StreamId opaquely identifies a read or write stream, assigned once at
// graph construction and carried unchanged through every message and event
// that touches the stream.
type StreamId uuid.UUID

// NewStreamId allocates a fresh stream identifier.
func NewStreamId() StreamId {
	return StreamId(uuid.New())
}

func (id StreamId) String() string {
	return uuid.UUID(id).String()
}

// OperatorID opaquely identifies an operator instance within the graph.
type OperatorID uuid.UUID

// NewOperatorID allocates a fresh operator identifier.
func NewOperatorID() OperatorID {
	return OperatorID(uuid.New())
}

func (id OperatorID) String() string {
	return uuid.UUID(id).String()
}

// StateID opaquely identifies a piece of operator state for the purposes of
// an OperatorEvent's read/write footprint.
type StateID uuid.UUID

// NewStateID allocates a fresh state identifier.
func NewStateID() StateID {
	return StateID(uuid.New())
}

func (id StateID) String() string {
	return uuid.UUID(id).String()
}
