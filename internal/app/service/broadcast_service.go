package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

// BroadcastService sends notifications to realtime subscribers.
// Delivery is fire and forget; watchlist mutations never trigger it.
type BroadcastService struct {
	broadcaster domain.Broadcaster
	logger      *zap.Logger
}

// NewBroadcastService creates a new BroadcastService.
func NewBroadcastService(broadcaster domain.Broadcaster, logger *zap.Logger) *BroadcastService {
	return &BroadcastService{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Broadcast sends n to every current subscriber of channel.
func (s *BroadcastService) Broadcast(ctx context.Context, channel string, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	s.broadcaster.Broadcast(ctx, channel, payload)

	s.logger.Info("notification broadcast",
		zap.String("channel", channel),
		zap.String("type", n.Type),
	)

	return nil
}

// RefreshMovies tells every movies subscriber to refetch its data.
func (s *BroadcastService) RefreshMovies(ctx context.Context) error {
	return s.Broadcast(ctx, domain.ChannelMovies, domain.RefetchMoviesNotification())
}
