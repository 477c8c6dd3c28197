// Package db opens the connection pool to the WordPress database and
// routes gorm's logging through the jsonify logger.
package db

import (
	"context"

	"gorm.io/gorm"
)

// Database is an open connection pool
type Database interface {
	// DB returns the gorm handle shared by all queries
	DB() (*gorm.DB, error)
	// Ping checks that the server still answers
	Ping(ctx context.Context) error
	// Close releases every pooled connection
	Close() error
}
