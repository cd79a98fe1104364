package dataflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStream_RecordsConditionContext(t *testing.T) {
	ch := make(chan Message[int], 2)
	cc := NewConditionContext()
	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(ch), cc)

	ts := NewVectorTimestamp(1)
	ch <- NewDataMessage(ts, 42)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := rs.Read(ctx)
	require.NoError(t, err)
	payload, ok := msg.Data()
	require.True(t, ok)
	assert.Equal(t, 42, payload)
	assert.Equal(t, 1, cc.DataCount(ts))
}

func TestReadStream_ClosedReturnsErrStreamClosed(t *testing.T) {
	ch := make(chan Message[int])
	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(ch), nil)
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := rs.Read(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestReadStream_ContextCancellation(t *testing.T) {
	ch := make(chan Message[int])
	rs := NewReadStream(NewStreamId(), (<-chan Message[int])(ch), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rs.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteStream_SendAfterCloseFails(t *testing.T) {
	ch := make(chan Message[int], 1)
	ws := NewWriteStream(NewStreamId(), (chan<- Message[int])(ch), nil)

	ws.Close()
	assert.True(t, ws.IsClosed())
	err := ws.Send(NewDataMessage(NewVectorTimestamp(1), 1))
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestWriteStream_CloneSharesCloseState(t *testing.T) {
	ch := make(chan Message[int], 1)
	ws := NewWriteStream(NewStreamId(), (chan<- Message[int])(ch), nil)
	clone := ws.Clone()

	ws.Close()
	assert.True(t, clone.IsClosed())
}

func TestWriteStream_SendRecordsStatistics(t *testing.T) {
	ch := make(chan Message[int], 1)
	ws := NewWriteStream(NewStreamId(), (chan<- Message[int])(ch), nil)

	ts := NewVectorTimestamp(7)
	require.NoError(t, ws.Send(NewDataMessage(ts, 1)))
	assert.Equal(t, 1, ws.Statistics().DataCount(ts))
}
