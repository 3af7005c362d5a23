// Package events implements the best-effort broadcast channel pushing domain
// events to connected dashboard clients. Delivery is fire-and-forget: a slow
// or disconnected subscriber misses events, there is no queue or replay.
package events

import (
	"log/slog"
	"sync"
)

// Event names pushed to the admin channel.
const (
	OrderCreated   = "order-created"
	OrderUpdated   = "order-updated"
	ProductCreated = "product-created"
	ProductUpdated = "product-updated"
	ProductDeleted = "product-deleted"
	StockAlert     = "stock-alert"
)

// Event is an ephemeral domain notification. No persistence, no delivery
// guarantee, no cross-publisher ordering.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// subscriberBuffer bounds each subscriber's pending events; when full, new
// events for that subscriber are dropped rather than blocking the publisher.
const subscriberBuffer = 32

// Hub fans events out to every subscription that has joined the admin
// channel. The subscriber set is the only shared mutable state and is
// mutex-guarded against concurrent join/leave/publish.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscription is one connected client. Events arrive on C only while the
// subscription has joined the admin channel.
type Subscription struct {
	hub    *Hub
	c      chan Event
	mu     sync.Mutex
	admin  bool
	closed bool
}

// Subscribe registers a new client. The client receives nothing until it
// joins the admin channel.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{hub: h, c: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish delivers the event to every joined subscriber. Per-publisher order
// is preserved; a subscriber with a full buffer silently misses the event.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		s.mu.Lock()
		if s.admin && !s.closed {
			select {
			case s.c <- evt:
			default:
				h.logger.Warn("Dropping event for slow subscriber", slog.String("event", evt.Type))
			}
		}
		s.mu.Unlock()
	}
}

// Subscribers reports the number of registered clients (joined or not).
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// C is the subscriber's event stream.
func (s *Subscription) C() <-chan Event { return s.c }

// JoinAdmin starts delivery of admin-channel events to this subscription.
func (s *Subscription) JoinAdmin() {
	s.mu.Lock()
	s.admin = true
	s.mu.Unlock()
}

// LeaveAdmin stops delivery without closing the connection.
func (s *Subscription) LeaveAdmin() {
	s.mu.Lock()
	s.admin = false
	s.mu.Unlock()
}

// Close removes the subscription from the hub and closes its stream.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.c)
	}
	s.mu.Unlock()
}
