package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

// OverviewFetcher is the part of MovieGateway used to enrich movies.
type OverviewFetcher interface {
	Overview(ctx context.Context, id string) (domain.TitleDocument, error)
}

// AddResult describes the outcome of WatchlistService.Add.
type AddResult struct {
	Item    *domain.WatchlistItem
	Movie   *domain.Movie
	Created bool // false when the movie was already on the watchlist
}

// WatchlistService handles watchlist mutations and listing.
type WatchlistService struct {
	store    domain.MovieStore
	overview OverviewFetcher
	logger   *zap.Logger
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(store domain.MovieStore, overview OverviewFetcher, logger *zap.Logger) *WatchlistService {
	return &WatchlistService{
		store:    store,
		overview: overview,
		logger:   logger,
	}
}

// Add puts externalID on the user's watchlist.
//
// The movie record is resolved or created, enriched from the upstream overview
// when its title or image is missing, and associated with the user, all in
// one transaction. Enrichment is best effort and never fails the call.
// Adding a movie that is already listed succeeds with Created=false.
func (s *WatchlistService) Add(ctx context.Context, userID, externalID string) (*AddResult, error) {
	var result AddResult

	err := s.store.WithinTransaction(ctx, func(tx domain.MovieStore) error {
		movie, _, err := tx.FindOrCreateMovie(ctx, externalID)
		if err != nil {
			return fmt.Errorf("resolving movie %s: %w", externalID, err)
		}

		if !movie.IsEnriched() {
			s.enrich(ctx, tx, movie)
		}

		item, created, err := tx.FindOrCreateWatchlistItem(ctx, userID, movie.ID)
		if errors.Is(err, domain.ErrConstraintViolation) {
			// A concurrent add of the same pair won the insert.
			item, created, err = tx.FindOrCreateWatchlistItem(ctx, userID, movie.ID)
		}
		if err != nil {
			return fmt.Errorf("adding %s to watchlist: %w", externalID, err)
		}

		item.Movie = movie
		result = AddResult{Item: item, Movie: movie, Created: created}

		return nil
	})
	if err != nil {
		s.logger.Error("watchlist add failed",
			zap.String("user_id", userID),
			zap.String("external_id", externalID),
			zap.Error(err),
		)

		return nil, err
	}

	s.logger.Debug("watchlist add completed",
		zap.String("user_id", userID),
		zap.String("external_id", externalID),
		zap.Bool("created", result.Created),
	)

	return &result, nil
}

// enrich fills in the movie's title and image from the upstream overview.
// Every failure is logged and dropped; movie is updated in place on success.
func (s *WatchlistService) enrich(ctx context.Context, tx domain.MovieStore, movie *domain.Movie) {
	doc, err := s.overview.Overview(ctx, movie.ExternalID)
	if err != nil {
		s.logger.Warn("movie enrichment skipped: overview unavailable",
			zap.String("external_id", movie.ExternalID),
			zap.Error(err),
		)
		return
	}

	summary, err := doc.Summary()
	if err != nil {
		s.logger.Warn("movie enrichment skipped: unexpected overview shape",
			zap.String("external_id", movie.ExternalID),
			zap.Error(err),
		)
		return
	}
	if summary.IsEmpty() {
		return
	}

	// Savepoint: a failed write here must not abort the enclosing add.
	err = tx.WithinTransaction(ctx, func(inner domain.MovieStore) error {
		return inner.SaveMovieFields(ctx, movie.ExternalID, summary.Title, summary.ImageURL)
	})
	if err != nil {
		s.logger.Warn("movie enrichment not saved",
			zap.String("external_id", movie.ExternalID),
			zap.Error(err),
		)
		return
	}

	movie.Title = summary.Title
	movie.ImageURL = summary.ImageURL
}

// Remove deletes externalID from the user's watchlist.
// It reports whether an item was actually removed; removing an absent item is not an error.
func (s *WatchlistService) Remove(ctx context.Context, userID, externalID string) (bool, error) {
	deleted, err := s.store.DeleteWatchlistItem(ctx, userID, externalID)
	if err != nil {
		s.logger.Error("watchlist remove failed",
			zap.String("user_id", userID),
			zap.String("external_id", externalID),
			zap.Error(err),
		)

		return false, err
	}

	return deleted > 0, nil
}

// List returns the user's watchlist, newest first.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]*domain.WatchlistItem, error) {
	items, err := s.store.ListWatchlist(ctx, userID)
	if err != nil {
		s.logger.Error("watchlist list failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return items, nil
}
