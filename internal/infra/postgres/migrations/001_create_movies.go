package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createMoviesTable creates the movies table. external_id is the upstream
// identifier and is unique; title and image_url start empty until enrichment.
func createMoviesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_movies",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS movies (
					id BIGSERIAL PRIMARY KEY,
					external_id VARCHAR(16) NOT NULL,
					title VARCHAR(255) NOT NULL DEFAULT '',
					image_url TEXT NOT NULL DEFAULT '',

					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

					CONSTRAINT uq_movies_external_id UNIQUE (external_id)
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS movies;").Error
		},
	}
}
