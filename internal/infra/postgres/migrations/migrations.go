// Package migrations provides database migrations using gormigrate.
package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// options runs each migration in its own transaction; PostgreSQL DDL is
// transactional, so a failed migration leaves no partial schema behind.
var options = &gormigrate.Options{
	TableName:      "migrations",
	IDColumnName:   "id",
	IDColumnSize:   255,
	UseTransaction: true,
}

// Migrations returns all database migrations, oldest first.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		createMoviesTable(),
		createWatchlistItemsTable(),
	}
}

// Run applies every pending migration.
func Run(db *gorm.DB) error {
	return gormigrate.New(db, options, Migrations()).Migrate()
}

// Rollback reverts the most recently applied migration.
func Rollback(db *gorm.DB) error {
	return gormigrate.New(db, options, Migrations()).RollbackLast()
}
