package dataflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventNotifier_PublishFansOutToAllSubscribers(t *testing.T) {
	notifier := NewEventNotifier(4, nil)
	ch1, unsub1 := notifier.Subscribe()
	ch2, unsub2 := notifier.Subscribe()
	defer unsub1()
	defer unsub2()

	opID := NewOperatorID()
	require.NoError(t, notifier.Publish(EventNotification{Kind: AddedEvents, OperatorID: opID}))

	for _, ch := range []<-chan EventNotification{ch1, ch2} {
		select {
		case n := <-ch:
			assert.Equal(t, opID, n.OperatorID)
		case <-time.After(time.Second):
			t.Fatal("expected notification")
		}
	}
}

func TestEventNotifier_PublishAfterShutdownFails(t *testing.T) {
	notifier := NewEventNotifier(4, nil)
	notifier.Shutdown()

	err := notifier.Publish(EventNotification{Kind: AddedEvents, OperatorID: NewOperatorID()})
	assert.ErrorIs(t, err, ErrNotifierDown)
}

func TestEventNotifier_FullSubscriberBufferDoesNotBlockPublish(t *testing.T) {
	notifier := NewEventNotifier(1, nil)
	_, unsub := notifier.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = notifier.Publish(EventNotification{Kind: AddedEvents, OperatorID: NewOperatorID()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}
