// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

// MovieLookup is the read side of MovieGateway.
type MovieLookup interface {
	Overview(ctx context.Context, id string) (domain.TitleDocument, error)
	Popular(ctx context.Context, limit int) ([]domain.TitleDocument, error)
	Search(ctx context.Context, title string, limit int) ([]json.RawMessage, error)
}

// CatalogService serves movie lookups to clients and records every title it
// hands out, so later watchlist adds find an existing movie.
type CatalogService struct {
	movies MovieLookup
	store  domain.MovieStore
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService. A nil store disables registration.
func NewCatalogService(movies MovieLookup, store domain.MovieStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		movies: movies,
		store:  store,
		logger: logger,
	}
}

// Popular returns the popular list and registers its titles.
func (s *CatalogService) Popular(ctx context.Context, limit int) ([]domain.TitleDocument, error) {
	docs, err := s.movies.Popular(ctx, limit)
	if err != nil {
		s.logger.Error("popular lookup failed", zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}

	payloads := make([][]byte, len(docs))
	for i, doc := range docs {
		payloads[i] = doc
	}
	s.register(ctx, payloads)

	return docs, nil
}

// Search returns search results for title and registers the titles they reference.
func (s *CatalogService) Search(ctx context.Context, title string, limit int) ([]json.RawMessage, error) {
	s.logger.Debug("searching titles",
		zap.String("title", title),
		zap.Int("limit", limit),
	)

	results, err := s.movies.Search(ctx, title, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("title", title), zap.Error(err))
		return nil, err
	}

	payloads := make([][]byte, len(results))
	for i, result := range results {
		payloads[i] = result
	}
	s.register(ctx, payloads)

	return results, nil
}

// Overview returns the overview document for a title.
func (s *CatalogService) Overview(ctx context.Context, id string) (domain.TitleDocument, error) {
	doc, err := s.movies.Overview(ctx, id)
	if err != nil {
		s.logger.Error("overview lookup failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return doc, nil
}

// register records every title referenced by payloads. Failures are logged only.
func (s *CatalogService) register(ctx context.Context, payloads [][]byte) {
	if s.store == nil {
		return
	}

	seen := make(map[string]struct{}, len(payloads))
	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		id, ok := domain.ReferencedTitleID(p)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	if err := s.store.EnsureMovies(ctx, ids); err != nil {
		s.logger.Warn("registering referenced titles failed",
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
	}
}
