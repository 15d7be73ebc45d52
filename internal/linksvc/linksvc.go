// Package linksvc implements LinkService, the orchestration layer that
// owns validation, slug derivation, the generated-slug collision retry
// policy, and list ordering. It depends only on the ports in internal/repo,
// internal/domain, and sluggen — no adapter, no transport.
package linksvc

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/errx"
	"github.com/sundayezeilo/urlshortener/internal/repo"
	"github.com/sundayezeilo/urlshortener/sluggen"
)

const (
	// MaxRetries bounds how many times Create re-reserves a counter value
	// after a generated slug collides with an existing record.
	MaxRetries = 3

	// DefaultListLimit and MaxListLimit clamp LinkService.List.
	DefaultListLimit = 200
	MaxListLimit     = 500

	// repoCallTimeout bounds every individual repository call (§5: repository
	// operations ≤ 3s by default).
	repoCallTimeout = 3 * time.Second
)

// NewLink is the input to Create: an original URL and an optional
// caller-chosen alias.
type NewLink struct {
	OriginalURL string
	Alias       string
}

// Service orchestrates create/resolve/list over a Repository.
type Service struct {
	repo      repo.Repository
	generator sluggen.Generator
	clock     domain.Clock
	minWidth  int
}

// New builds a Service. minWidth defaults to sluggen.DefaultMinWidth when
// zero.
func New(r repo.Repository, generator sluggen.Generator, clock domain.Clock, minWidth int) *Service {
	if minWidth <= 0 {
		minWidth = sluggen.DefaultMinWidth
	}
	return &Service{repo: r, generator: generator, clock: clock, minWidth: minWidth}
}

// Create validates the request, derives or validates the slug, and
// persists the ShortLink. Generated-slug collisions retry up to
// MaxRetries by reserving a fresh counter value before surfacing Conflict.
func (s *Service) Create(ctx context.Context, req NewLink, user domain.UserEmail) (domain.ShortLink, error) {
	const op = "linksvc.Create"

	if err := validateOriginalURL(req.OriginalURL); err != nil {
		return domain.ShortLink{}, errx.E(op, errx.Invalid, err)
	}

	if req.Alias != "" {
		slug, err := domain.NewAlias(req.Alias)
		if err != nil {
			return domain.ShortLink{}, errx.E(op, errx.Invalid, err)
		}
		return s.putOnce(ctx, slug, req.OriginalURL, user, op)
	}

	return s.createGenerated(ctx, req.OriginalURL, user, op)
}

func (s *Service) createGenerated(ctx context.Context, originalURL string, user domain.UserEmail, op string) (domain.ShortLink, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		n, err := s.incrementCounter(ctx, domain.GlobalCounterName)
		if err != nil {
			return domain.ShortLink{}, errx.E(op, errx.KindOf(err), err)
		}

		slug, err := domain.NewSlug(s.generator.Derive(n, s.minWidth))
		if err != nil {
			// The generator is trusted to emit policy-compliant slugs;
			// treat a violation as an adapter bug, not a client error.
			return domain.ShortLink{}, errx.E(op, errx.Internal, err)
		}

		link, err := s.put(ctx, slug, originalURL, user)
		if err == nil {
			return link, nil
		}
		if errx.KindOf(err) != errx.Conflict {
			return domain.ShortLink{}, err
		}
		lastErr = err
	}
	return domain.ShortLink{}, errx.E(op, errx.Conflict, lastErr)
}

func (s *Service) putOnce(ctx context.Context, slug domain.Slug, originalURL string, user domain.UserEmail, op string) (domain.ShortLink, error) {
	link, err := s.put(ctx, slug, originalURL, user)
	if err != nil {
		return domain.ShortLink{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

func (s *Service) put(ctx context.Context, slug domain.Slug, originalURL string, user domain.UserEmail) (domain.ShortLink, error) {
	link := domain.ShortLink{
		Slug:        slug,
		OriginalURL: originalURL,
		CreatedAt:   s.clock.Now(),
		CreatedBy:   user,
	}
	if err := s.putRepo(ctx, link); err != nil {
		return domain.ShortLink{}, err
	}
	return link, nil
}

// incrementCounter, putRepo, getRepo, and listRepo bound their repository
// call with the default repoCallTimeout; a shorter deadline already on the
// caller's context still applies.
func (s *Service) incrementCounter(ctx context.Context, name string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoCallTimeout)
	defer cancel()
	return s.repo.IncrementCounter(ctx, name)
}

func (s *Service) putRepo(ctx context.Context, link domain.ShortLink) error {
	ctx, cancel := context.WithTimeout(ctx, repoCallTimeout)
	defer cancel()
	return s.repo.Put(ctx, link)
}

func (s *Service) getRepo(ctx context.Context, slug domain.Slug) (*domain.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, repoCallTimeout)
	defer cancel()
	return s.repo.Get(ctx, slug)
}

func (s *Service) listRepo(ctx context.Context, limit int) ([]domain.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, repoCallTimeout)
	defer cancel()
	return s.repo.List(ctx, limit)
}

// Resolve looks up the original URL for slug, or NotFound if absent.
func (s *Service) Resolve(ctx context.Context, slug domain.Slug) (string, error) {
	const op = "linksvc.Resolve"

	link, err := s.getRepo(ctx, slug)
	if err != nil {
		return "", errx.E(op, errx.KindOf(err), err)
	}
	if link == nil {
		return "", errx.E(op, errx.NotFound, errNotFound)
	}
	return link.OriginalURL, nil
}

// List returns up to limit links (clamped to [1, MaxListLimit], default
// DefaultListLimit), sorted descending by (created_at, slug).
func (s *Service) List(ctx context.Context, limit int) ([]domain.ShortLink, error) {
	const op = "linksvc.List"

	limit = clampLimit(limit)

	links, err := s.listRepo(ctx, limit)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}

	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
		return links[i].Slug.String() > links[j].Slug.String()
	})
	return links, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func validateOriginalURL(raw string) error {
	if raw == "" {
		return &invalidURLError{"original_url is required"}
	}
	if len(raw) > domain.MaxOriginalURLLength {
		return &invalidURLError{"original_url exceeds 2048 characters"}
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return &invalidURLError{"original_url is not a valid URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &invalidURLError{"original_url must use http or https"}
	}
	if parsed.Host == "" {
		return &invalidURLError{"original_url must include a host"}
	}
	return nil
}

type invalidURLError struct{ msg string }

func (e *invalidURLError) Error() string { return e.msg }

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (e *notFoundError) Error() string { return "short link not found" }
