package events

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s *Subscription, n int) []Event {
	t.Helper()
	got := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case evt := <-s.C():
			got = append(got, evt)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	return got
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub(slog.Default())

	t.Run("AllJoinedSubscribersReceiveOneCopy", func(t *testing.T) {
		subs := make([]*Subscription, 3)
		for i := range subs {
			subs[i] = hub.Subscribe()
			subs[i].JoinAdmin()
			defer subs[i].Close()
		}

		hub.Publish(Event{Type: OrderCreated, Payload: "o-1"})

		for _, s := range subs {
			got := drain(t, s, 1)
			assert.Equal(t, OrderCreated, got[0].Type)
			// No second copy.
			select {
			case evt := <-s.C():
				t.Fatalf("unexpected extra event %v", evt)
			case <-time.After(20 * time.Millisecond):
			}
		}
	})

	t.Run("PublishOrderPreservedPerSubscriber", func(t *testing.T) {
		s := hub.Subscribe()
		s.JoinAdmin()
		defer s.Close()

		for i := 0; i < 10; i++ {
			hub.Publish(Event{Type: ProductUpdated, Payload: i})
		}
		got := drain(t, s, 10)
		for i, evt := range got {
			assert.Equal(t, i, evt.Payload)
		}
	})

	t.Run("LateJoinerMissesEarlierEvents", func(t *testing.T) {
		hub.Publish(Event{Type: ProductDeleted, Payload: "gone"})

		s := hub.Subscribe()
		s.JoinAdmin()
		defer s.Close()

		select {
		case evt := <-s.C():
			t.Fatalf("late joiner received retroactive event %v", evt)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("UnjoinedSubscriberReceivesNothing", func(t *testing.T) {
		s := hub.Subscribe()
		defer s.Close()

		hub.Publish(Event{Type: OrderUpdated, Payload: "o-2"})

		select {
		case evt := <-s.C():
			t.Fatalf("unjoined subscriber received %v", evt)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("LeaveAdminStopsDelivery", func(t *testing.T) {
		s := hub.Subscribe()
		s.JoinAdmin()
		defer s.Close()

		hub.Publish(Event{Type: StockAlert, Payload: 1})
		drain(t, s, 1)

		s.LeaveAdmin()
		hub.Publish(Event{Type: StockAlert, Payload: 2})
		select {
		case evt := <-s.C():
			t.Fatalf("received after leave: %v", evt)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("SlowSubscriberDropsInsteadOfBlocking", func(t *testing.T) {
		s := hub.Subscribe()
		s.JoinAdmin()
		defer s.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < subscriberBuffer*2; i++ {
				hub.Publish(Event{Type: OrderCreated, Payload: i})
			}
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("publisher blocked on slow subscriber")
		}

		// At most the buffer's worth arrived; the rest were dropped.
		got := drain(t, s, subscriberBuffer)
		assert.Len(t, got, subscriberBuffer)
	})

	t.Run("CloseRemovesFromHub", func(t *testing.T) {
		before := hub.Subscribers()
		s := hub.Subscribe()
		require.Equal(t, before+1, hub.Subscribers())
		s.Close()
		assert.Equal(t, before, hub.Subscribers())

		// Publishing after close must not panic.
		hub.Publish(Event{Type: OrderCreated, Payload: fmt.Sprint("post-close")})
	})
}
