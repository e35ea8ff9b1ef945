package domain

import (
	"context"
	"time"
)

// Upstream endpoint paths, relative to the movie API base URL.
const (
	EndpointOverview = "/title/get-overview-details"
	EndpointDetails  = "/title/get-details"
	EndpointPopular  = "/title/get-most-popular-movies"
	EndpointSearch   = "/title/v2/find/"
)

// MovieStore defines the interface for movie and watchlist persistence.
// Implementations: internal/infra/postgres/repository.go
type MovieStore interface {
	// FindOrCreateMovie returns the movie for externalID, inserting an empty
	// record if none exists. created is true only for the inserting caller.
	FindOrCreateMovie(ctx context.Context, externalID string) (movie *Movie, created bool, err error)

	// EnsureMovies inserts empty records for any externalIDs not yet known.
	EnsureMovies(ctx context.Context, externalIDs []string) error

	// SaveMovieFields overwrites the cached display fields of a movie.
	SaveMovieFields(ctx context.Context, externalID, title, imageURL string) error

	// FindOrCreateWatchlistItem associates a movie with a user.
	// Must be safe against concurrent calls for the same pair.
	FindOrCreateWatchlistItem(ctx context.Context, userID string, movieID int64) (item *WatchlistItem, created bool, err error)

	// DeleteWatchlistItem removes the user's item for externalID and returns
	// the number of rows removed.
	DeleteWatchlistItem(ctx context.Context, userID, externalID string) (int64, error)

	// ListWatchlist returns the user's items, newest first, with Movie set.
	ListWatchlist(ctx context.Context, userID string) ([]*WatchlistItem, error)

	// WithinTransaction runs fn in a single unit of work. Nested calls run
	// in a savepoint: an error from the inner fn only undoes the inner writes.
	WithinTransaction(ctx context.Context, fn func(tx MovieStore) error) error
}

// MovieAPI defines the interface for the third-party movie metadata API.
// Implementations: internal/infra/rapidapi/client.go
type MovieAPI interface {
	// Fetch performs a GET against endpoint and returns the raw JSON body.
	Fetch(ctx context.Context, endpoint string, query map[string]string) ([]byte, error)
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go, internal/infra/memcache/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Broadcaster publishes notifications to every current subscriber of a channel.
// Delivery is best effort: there is no acknowledgment and nothing is retained
// for subscribers that connect later.
// Implementations: internal/realtime/hub.go, internal/infra/redis/pubsub.go
type Broadcaster interface {
	Broadcast(ctx context.Context, channel string, payload []byte)
}
