package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionLattice_DrainOrdersByTimestampThenPriority(t *testing.T) {
	lattice := NewExecutionLattice()
	t1 := NewVectorTimestamp(1)
	t2 := NewVectorTimestamp(2)

	var order []string
	mk := func(label string, ts Timestamp, isWatermark bool, priority int) *OperatorEvent {
		return NewOperatorEvent(ts, isWatermark, priority, ReadOnly, nil, nil, func() {
			order = append(order, label)
		})
	}

	lattice.AddEvents(
		mk("t2-watermark", t2, true, PriorityWatermark),
		mk("t1-watermark", t1, true, PriorityWatermark),
		mk("t1-data", t1, false, PriorityData),
	)

	events := lattice.DrainReady()
	require.Len(t, events, 3)
	assert.Equal(t, t1, events[0].Timestamp)
	assert.Equal(t, PriorityData, events[0].Priority)
	assert.Equal(t, t1, events[1].Timestamp)
	assert.Equal(t, PriorityWatermark, events[1].Priority)
	assert.Equal(t, t2, events[2].Timestamp)
}

func TestExecutionLattice_DrainEmptiesQueue(t *testing.T) {
	lattice := NewExecutionLattice()
	lattice.AddEvents(NewOperatorEvent(NewVectorTimestamp(1), false, 0, ReadOnly, nil, nil, func() {}))
	require.Equal(t, 1, lattice.Pending())

	lattice.DrainReady()
	assert.Equal(t, 0, lattice.Pending())
}
