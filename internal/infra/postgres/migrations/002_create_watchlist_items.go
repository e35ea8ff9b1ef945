package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createWatchlistItemsTable creates the user-to-movie association table.
// A user lists a movie at most once.
func createWatchlistItemsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_watchlist_items",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS watchlist_items (
					id BIGSERIAL PRIMARY KEY,
					user_id VARCHAR(64) NOT NULL,
					movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

					CONSTRAINT uq_watchlist_user_movie UNIQUE (user_id, movie_id)
				);
			`).Error
			if err != nil {
				return err
			}

			// Listing is always per user, newest first.
			return tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_watchlist_items_user_created
				ON watchlist_items(user_id, created_at DESC);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS watchlist_items;").Error
		},
	}
}
