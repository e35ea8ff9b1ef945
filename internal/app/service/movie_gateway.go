package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"watchlist-service/internal/domain"
)

// GatewayConfig holds the cache TTL classes and fan-out settings of MovieGateway.
type GatewayConfig struct {
	TitleTTL           time.Duration // overview and details
	ListTTL            time.Duration // popular and search
	PopularConcurrency int           // parallel details lookups per popular fetch
}

// DefaultGatewayConfig returns the standard TTL classes.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		TitleTTL:           time.Hour,
		ListTTL:            10 * time.Minute,
		PopularConcurrency: 4,
	}
}

// popularQuery is the fixed market selection sent to the popular endpoint.
var popularQuery = map[string]string{
	"currentCountry":  "US",
	"purchaseCountry": "US",
	"homeCountry":     "US",
}

// MovieGateway fronts the movie API with a cache-aside layer.
//
// Every operation checks the cache first, fetches upstream on a miss and
// stores the result. Concurrent misses on the same key may both fetch; the
// last write wins.
type MovieGateway struct {
	api    domain.MovieAPI
	cache  domain.Cache
	cfg    GatewayConfig
	logger *zap.Logger
}

// NewMovieGateway creates a new MovieGateway. A nil cache disables caching.
func NewMovieGateway(api domain.MovieAPI, cache domain.Cache, cfg GatewayConfig, logger *zap.Logger) *MovieGateway {
	if cfg.PopularConcurrency <= 0 {
		cfg.PopularConcurrency = 1
	}

	return &MovieGateway{
		api:    api,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Overview returns the overview document for a title. Errors are not swallowed.
func (g *MovieGateway) Overview(ctx context.Context, id string) (domain.TitleDocument, error) {
	return readThrough(ctx, g, "overview:"+id, g.cfg.TitleTTL, func(ctx context.Context) (domain.TitleDocument, error) {
		return g.fetchDocument(ctx, domain.EndpointOverview, id)
	})
}

// Details returns the details document for a title. Errors are not swallowed.
func (g *MovieGateway) Details(ctx context.Context, id string) (domain.TitleDocument, error) {
	return readThrough(ctx, g, "details:"+id, g.cfg.TitleTTL, func(ctx context.Context) (domain.TitleDocument, error) {
		return g.fetchDocument(ctx, domain.EndpointDetails, id)
	})
}

// Popular returns details documents for the first limit popular titles.
// Titles whose details cannot be fetched are left out, so the result may be
// shorter than limit, or empty. Only a failure of the popular list itself is
// returned as an error.
func (g *MovieGateway) Popular(ctx context.Context, limit int) ([]domain.TitleDocument, error) {
	if limit < 0 {
		limit = 0
	}

	return readThrough(ctx, g, "popular:"+strconv.Itoa(limit), g.cfg.ListTTL, func(ctx context.Context) ([]domain.TitleDocument, error) {
		return g.fetchPopular(ctx, limit)
	})
}

// Search returns at most limit search results for title. A response without
// results yields an empty list.
func (g *MovieGateway) Search(ctx context.Context, title string, limit int) ([]json.RawMessage, error) {
	if limit < 0 {
		limit = 0
	}

	key := "search:" + title + ":" + strconv.Itoa(limit)

	return readThrough(ctx, g, key, g.cfg.ListTTL, func(ctx context.Context) ([]json.RawMessage, error) {
		body, err := g.api.Fetch(ctx, domain.EndpointSearch, map[string]string{
			"title": title,
			"limit": strconv.Itoa(limit),
			"r":     "json",
		})
		if err != nil {
			return nil, err
		}

		var envelope domain.SearchResults
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decoding search results: %w", err)
		}

		results := envelope.Results
		if results == nil {
			results = []json.RawMessage{}
		}
		if len(results) > limit {
			results = results[:limit]
		}

		return results, nil
	})
}

func (g *MovieGateway) fetchDocument(ctx context.Context, endpoint, id string) (domain.TitleDocument, error) {
	body, err := g.api.Fetch(ctx, endpoint, map[string]string{
		"tconst": id,
		"r":      "json",
	})
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("decoding %s response for %s: invalid JSON", endpoint, id)
	}

	return domain.TitleDocument(body), nil
}

func (g *MovieGateway) fetchPopular(ctx context.Context, limit int) ([]domain.TitleDocument, error) {
	body, err := g.api.Fetch(ctx, domain.EndpointPopular, popularQuery)
	if err != nil {
		return nil, err
	}

	var refs []string
	if err := json.Unmarshal(body, &refs); err != nil {
		return nil, fmt.Errorf("decoding popular list: %w", err)
	}
	if len(refs) > limit {
		refs = refs[:limit]
	}

	docs := make([]domain.TitleDocument, len(refs))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.PopularConcurrency)

	for i, ref := range refs {
		id, ok := domain.ExtractTitleID(ref)
		if !ok {
			g.logger.Warn("skipping malformed popular reference", zap.String("ref", ref))
			continue
		}

		eg.Go(func() error {
			doc, err := g.Details(ctx, id)
			if err != nil {
				// One missing title must not fail the whole list.
				g.logger.Warn("omitting popular title",
					zap.String("id", id),
					zap.Error(err),
				)
				return nil
			}
			docs[i] = doc
			return nil
		})
	}

	_ = eg.Wait()

	results := make([]domain.TitleDocument, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			results = append(results, doc)
		}
	}

	g.logger.Debug("popular list fetched",
		zap.Int("requested", limit),
		zap.Int("references", len(refs)),
		zap.Int("returned", len(results)),
	)

	return results, nil
}

// readThrough returns the cached value for key or loads, caches and returns it.
// Cache backend failures degrade to a miss; they never fail the call.
func readThrough[T any](ctx context.Context, g *MovieGateway, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if data := g.lookup(ctx, key); data != nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		g.logger.Warn("ignoring undecodable cache entry", zap.String("key", key))
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn("not caching unencodable value", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	g.store(ctx, key, data, ttl)

	return value, nil
}

func (g *MovieGateway) lookup(ctx context.Context, key string) []byte {
	if g.cache == nil {
		return nil
	}

	data, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil
	}

	return data
}

func (g *MovieGateway) store(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if g.cache == nil {
		return
	}

	if err := g.cache.Set(ctx, key, data, ttl); err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
