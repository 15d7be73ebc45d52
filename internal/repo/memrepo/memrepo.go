// Package memrepo is the in-memory reference Repository, used for tests
// and local development. It has no durability.
package memrepo

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/errx"
)

// Repository implements repo.Repository over a mutex-guarded map and an
// atomic counter set.
type Repository struct {
	mu       sync.RWMutex
	links    map[string]domain.ShortLink
	counters sync.Map // name string -> *atomic.Uint64
}

// New returns an empty in-memory repository.
func New() *Repository {
	return &Repository{
		links: make(map[string]domain.ShortLink),
	}
}

// Get performs a point lookup.
func (r *Repository) Get(_ context.Context, slug domain.Slug) (*domain.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[slug.String()]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

// Put inserts a new record, failing with Conflict if the slug is taken.
// Containment-check and insert happen inside one critical section.
func (r *Repository) Put(_ context.Context, link domain.ShortLink) error {
	const op = "memrepo.Put"

	r.mu.Lock()
	defer r.mu.Unlock()

	key := link.Slug.String()
	if _, exists := r.links[key]; exists {
		return errx.E(op, errx.Conflict, errAlreadyExists)
	}
	r.links[key] = link
	return nil
}

// List returns up to limit records in map-iteration order; the caller
// (LinkService) is responsible for sorting.
func (r *Repository) List(_ context.Context, limit int) ([]domain.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]domain.ShortLink, 0, min(limit, len(r.links)))
	for _, link := range r.links {
		if len(links) >= limit {
			break
		}
		links = append(links, link)
	}
	return links, nil
}

// IncrementCounter atomically increments the named counter, creating it
// lazily at 0 on first use, so the first call returns 1.
func (r *Repository) IncrementCounter(_ context.Context, name string) (uint64, error) {
	v, _ := r.counters.LoadOrStore(name, new(atomic.Uint64))
	counter := v.(*atomic.Uint64)
	return counter.Add(1), nil
}

var errAlreadyExists = &repoError{"slug already exists"}

type repoError struct{ msg string }

func (e *repoError) Error() string { return e.msg }
