// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// Movie is the locally stored record of an upstream title.
// ExternalID is the upstream identifier (e.g. "tt0133093") and never changes;
// Title and ImageURL are cached display fields filled in by enrichment.
type Movie struct {
	ID         int64  `json:"-"`
	ExternalID string `json:"tconst"`
	Title      string `json:"title"`
	ImageURL   string `json:"image_url"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// NewMovie creates a Movie with only its external identifier set.
func NewMovie(externalID string) *Movie {
	now := time.Now().UTC()
	return &Movie{
		ExternalID: externalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsEnriched reports whether both display fields are populated.
// Enriched movies are never looked up upstream again.
func (m *Movie) IsEnriched() bool {
	return m.Title != "" && m.ImageURL != ""
}

// WatchlistItem associates a user with a movie.
// At most one item exists per (UserID, MovieID).
type WatchlistItem struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	MovieID   int64     `json:"-"`
	Movie     *Movie    `json:"movie"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a message fanned out to realtime subscribers.
type Notification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Broadcast channels and notification types.
const (
	ChannelMovies = "movies"

	NotificationRefetch = "refetch"
)

// RefetchMoviesNotification tells clients their movie data is stale.
func RefetchMoviesNotification() Notification {
	return Notification{
		Type:    NotificationRefetch,
		Message: "refetch movies",
	}
}
