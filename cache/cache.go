// Package cache owns the single on-disk JSON feed document.
//
// The cache package follows the same conventions as the rest of jsonify:
// - Interface-driven design for testability
// - Uses logger.Logger interface for unified logging
// - Configuration with validation and defaults
// - Structured error handling
//
// Every mutation of the file happens while holding an exclusive advisory
// lock on a sidecar "<path>.lock" file. The document itself is replaced by
// renaming a fully written temporary file over it, so readers that do not
// take the lock still see either the old or the new document.
package cache

import (
	"context"

	"github.com/dailyyoga/jsonify/feed"
)

// UpdateFunc computes the next document from the current one.
// current is nil when no readable document exists.
// Returning a nil document leaves the file untouched.
type UpdateFunc func(current *feed.Document) (*feed.Document, error)

// Store is the persisted feed document
type Store interface {
	// Path returns the location of the document on disk
	Path() string

	// Read loads the document.
	// A missing or unreadable document is reported as ErrNotFound.
	Read(ctx context.Context) (*feed.Document, error)

	// Write fully replaces the document
	Write(ctx context.Context, doc *feed.Document) error

	// Delete removes the document. ErrNotFound is returned when it was absent.
	Delete(ctx context.Context) error

	// Update runs fn with the exclusive lock held across the read and the
	// write, so concurrent processes cannot lose each other's changes.
	Update(ctx context.Context, fn UpdateFunc) error
}
