package postgres

import (
	"time"

	"watchlist-service/internal/domain"
)

// MovieModel is the GORM model for the movies table.
type MovieModel struct {
	ID         int64  `gorm:"primaryKey"`
	ExternalID string `gorm:"type:varchar(16);not null;uniqueIndex:uq_movies_external_id"`
	Title      string `gorm:"type:varchar(255);not null;default:''"`
	ImageURL   string `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for MovieModel.
func (MovieModel) TableName() string {
	return "movies"
}

// ToDomain converts MovieModel to domain.Movie.
func (m *MovieModel) ToDomain() *domain.Movie {
	return &domain.Movie{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Title:      m.Title,
		ImageURL:   m.ImageURL,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// WatchlistItemModel is the GORM model for the watchlist_items table.
type WatchlistItemModel struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    string     `gorm:"type:varchar(64);not null;uniqueIndex:uq_watchlist_user_movie,priority:1"`
	MovieID   int64      `gorm:"not null;uniqueIndex:uq_watchlist_user_movie,priority:2"`
	Movie     MovieModel `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

// TableName returns the table name for WatchlistItemModel.
func (WatchlistItemModel) TableName() string {
	return "watchlist_items"
}

// ToDomain converts WatchlistItemModel to domain.WatchlistItem.
// Movie is set only when the association was loaded.
func (m *WatchlistItemModel) ToDomain() *domain.WatchlistItem {
	item := &domain.WatchlistItem{
		ID:        m.ID,
		UserID:    m.UserID,
		MovieID:   m.MovieID,
		CreatedAt: m.CreatedAt,
	}
	if m.Movie.ID != 0 {
		item.Movie = m.Movie.ToDomain()
	}

	return item
}
