// Package repo defines the storage port shared by every backend adapter
// (in-memory, SQLite, DynamoDB) and the errx-based error kinds those
// adapters map their backend-specific failures onto.
package repo

import (
	"context"

	"github.com/sundayezeilo/urlshortener/internal/domain"
)

// Repository is the persistence port. get/put/list/increment-counter
// compose the full contract; there is no update operation.
type Repository interface {
	// Get performs a point lookup. A missing slug is not an error: it
	// returns (nil, nil).
	Get(ctx context.Context, slug domain.Slug) (*domain.ShortLink, error)

	// Put inserts a new record. It MUST fail with a Conflict errx.Kind if
	// a record with the same slug already exists.
	Put(ctx context.Context, link domain.ShortLink) error

	// List returns at most limit records; order is unspecified by the
	// port — LinkService imposes the (created_at, slug) ordering.
	List(ctx context.Context, limit int) ([]domain.ShortLink, error)

	// IncrementCounter atomically increments the named counter and
	// returns its new value. The first call for an unseen name returns 1.
	IncrementCounter(ctx context.Context, name string) (uint64, error)
}
