package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watchlist-service/internal/domain"
)

// Repository implements domain.MovieStore using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOrCreateMovie returns the movie for externalID, inserting an empty record
// when it does not exist yet. Concurrent callers never see a duplicate-key error;
// exactly one of them gets created=true.
func (r *Repository) FindOrCreateMovie(ctx context.Context, externalID string) (*domain.Movie, bool, error) {
	model := MovieModel{ExternalID: externalID}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return nil, false, fmt.Errorf("inserting movie %s: %w", externalID, translate(result.Error))
	}
	if result.RowsAffected > 0 {
		return model.ToDomain(), true, nil
	}

	var existing MovieModel
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("getting movie %s: %w", externalID, translate(err))
	}

	return existing.ToDomain(), false, nil
}

// EnsureMovies inserts empty records for the externalIDs not stored yet.
func (r *Repository) EnsureMovies(ctx context.Context, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	models := make([]*MovieModel, len(externalIDs))
	for i, id := range externalIDs {
		models[i] = &MovieModel{ExternalID: id}
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		CreateInBatches(models, 100).Error
	if err != nil {
		return fmt.Errorf("registering movies: %w", translate(err))
	}

	return nil
}

// SaveMovieFields overwrites the display fields of an existing movie.
func (r *Repository) SaveMovieFields(ctx context.Context, externalID, title, imageURL string) error {
	result := r.db.WithContext(ctx).
		Model(&MovieModel{}).
		Where("external_id = ?", externalID).
		Updates(map[string]any{
			"title":      title,
			"image_url":  imageURL,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("updating movie %s: %w", externalID, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("updating movie %s: %w", externalID, domain.ErrNotFound)
	}

	return nil
}

// FindOrCreateWatchlistItem associates movieID with userID unless already associated.
func (r *Repository) FindOrCreateWatchlistItem(ctx context.Context, userID string, movieID int64) (*domain.WatchlistItem, bool, error) {
	model := WatchlistItemModel{UserID: userID, MovieID: movieID}

	result := r.db.WithContext(ctx).
		Omit("Movie").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return nil, false, fmt.Errorf("inserting watchlist item: %w", translate(result.Error))
	}
	if result.RowsAffected > 0 {
		return model.ToDomain(), true, nil
	}

	var existing WatchlistItemModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("getting watchlist item: %w", translate(err))
	}

	return existing.ToDomain(), false, nil
}

// DeleteWatchlistItem removes the user's item for externalID.
// It returns the number of rows removed, 0 when nothing matched.
func (r *Repository) DeleteWatchlistItem(ctx context.Context, userID, externalID string) (int64, error) {
	movieIDs := r.db.Model(&MovieModel{}).Select("id").Where("external_id = ?", externalID)

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id IN (?)", userID, movieIDs).
		Delete(&WatchlistItemModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting watchlist item: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ListWatchlist returns the user's items, newest first, with their movies loaded.
func (r *Repository) ListWatchlist(ctx context.Context, userID string) ([]*domain.WatchlistItem, error) {
	var models []WatchlistItemModel
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}

	items := make([]*domain.WatchlistItem, len(models))
	for i := range models {
		items[i] = models[i].ToDomain()
	}

	return items, nil
}

// WithinTransaction runs fn inside a database transaction. When the
// repository is already bound to a transaction, fn runs in a savepoint.
func (r *Repository) WithinTransaction(ctx context.Context, fn func(tx domain.MovieStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// translate maps driver errors to domain errors. Requires gorm.Config.TranslateError.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConstraintViolation
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	default:
		return err
	}
}
