// Package realtime fans notifications out to live subscribers grouped by channel.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBufferSize is the number of undelivered messages a subscriber may
// queue before it is dropped.
const DefaultBufferSize = 16

// Hub implements domain.Broadcaster for subscribers in this process.
//
// Sends never block: a subscriber whose buffer is full is considered gone and
// is removed, and its message channel is closed. Nothing is retained for
// subscribers that join later.
type Hub struct {
	mu         sync.Mutex
	channels   map[string]map[string]*Subscription
	bufferSize int
	logger     *zap.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets the per-subscriber buffer size.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		channels:   make(map[string]map[string]*Subscription),
		bufferSize: DefaultBufferSize,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscription is one subscriber's membership in a channel.
type Subscription struct {
	id       string
	channel  string
	messages chan []byte
	hub      *Hub
}

// ID returns the unique subscriber identifier.
func (s *Subscription) ID() string { return s.id }

// Messages returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) Messages() <-chan []byte { return s.messages }

// Close leaves the channel. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Subscribe joins channel and returns the new subscription.
func (h *Hub) Subscribe(channel string) *Subscription {
	sub := &Subscription{
		id:       uuid.NewString(),
		channel:  channel,
		messages: make(chan []byte, h.bufferSize),
		hub:      h,
	}

	h.mu.Lock()
	group, ok := h.channels[channel]
	if !ok {
		group = make(map[string]*Subscription)
		h.channels[channel] = group
	}
	group[sub.id] = sub
	size := len(group)
	h.mu.Unlock()

	h.logger.Debug("subscriber joined",
		zap.String("channel", channel),
		zap.String("subscriber_id", sub.id),
		zap.Int("subscribers", size),
	)

	return sub
}

// Broadcast delivers payload to every current subscriber of channel.
func (h *Hub) Broadcast(_ context.Context, channel string, payload []byte) {
	h.mu.Lock()
	group := h.channels[channel]

	delivered := 0
	var slow []*Subscription
	for _, sub := range group {
		select {
		case sub.messages <- payload:
			delivered++
		default:
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		h.removeLocked(sub)
	}
	h.mu.Unlock()

	for _, sub := range slow {
		h.logger.Warn("dropped slow subscriber",
			zap.String("channel", channel),
			zap.String("subscriber_id", sub.id),
		)
	}

	h.logger.Debug("broadcast delivered",
		zap.String("channel", channel),
		zap.Int("delivered", delivered),
		zap.Int("dropped", len(slow)),
	)
}

// Count returns the number of subscribers of channel.
func (h *Hub) Count(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, group := range h.channels {
		for _, sub := range group {
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	removed := h.removeLocked(sub)
	h.mu.Unlock()

	if removed {
		h.logger.Debug("subscriber left",
			zap.String("channel", sub.channel),
			zap.String("subscriber_id", sub.id),
		)
	}
}

// removeLocked deletes sub and closes its channel if it is still registered.
// h.mu must be held.
func (h *Hub) removeLocked(sub *Subscription) bool {
	group, ok := h.channels[sub.channel]
	if !ok {
		return false
	}
	if _, ok := group[sub.id]; !ok {
		return false
	}

	delete(group, sub.id)
	if len(group) == 0 {
		delete(h.channels, sub.channel)
	}
	close(sub.messages)

	return true
}
