package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

// Publisher implements domain.Broadcaster by publishing to Redis pub/sub.
// Each instance's Relay picks the message up and delivers it locally.
type Publisher struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewPublisher creates a Publisher. Messages for channel c go to Redis channel "{prefix}:c".
func NewPublisher(client redis.UniversalClient, prefix string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Broadcast publishes payload. Failures are logged; there is no retry.
func (p *Publisher) Broadcast(ctx context.Context, channel string, payload []byte) {
	receivers, err := p.client.Publish(ctx, p.prefix+":"+channel, payload).Result()
	if err != nil {
		p.logger.Warn("broadcast publish failed",
			zap.String("channel", channel),
			zap.Error(err),
		)

		return
	}

	p.logger.Debug("broadcast published",
		zap.String("channel", channel),
		zap.Int64("instances", receivers),
	)
}

// Relay forwards every message published under prefix to a local broadcaster.
type Relay struct {
	client redis.UniversalClient
	prefix string
	target domain.Broadcaster
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay creates a Relay delivering to target.
func NewRelay(client redis.UniversalClient, prefix string, target domain.Broadcaster, logger *zap.Logger) *Relay {
	return &Relay{
		client: client,
		prefix: prefix,
		target: target,
		logger: logger,
	}
}

// Start subscribes and begins forwarding in the background.
// It returns once the subscription is confirmed by Redis.
func (r *Relay) Start(ctx context.Context) error {
	pattern := r.prefix + ":*"

	pubsub := r.client.PSubscribe(ctx, pattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribing to %s: %w", pattern, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.logger.Info("broadcast relay started", zap.String("pattern", pattern))

	r.wg.Add(1)
	go r.run(runCtx, pubsub)

	return nil
}

// Stop ends the subscription and waits for the forwarding loop to exit.
func (r *Relay) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.logger.Info("broadcast relay stopped")
}

func (r *Relay) run(ctx context.Context, pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			channel := strings.TrimPrefix(msg.Channel, r.prefix+":")
			r.target.Broadcast(ctx, channel, []byte(msg.Payload))
		}
	}
}
