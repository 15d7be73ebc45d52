// Package api implements the three logical endpoints of the shared HTTP
// surface (create, resolve, list) as plain http.HandlerFuncs, so the
// long-lived server and the two Lambda entrypoints can wire the exact
// same handlers into their respective routers.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/errx"
	"github.com/sundayezeilo/urlshortener/internal/httpx"
	"github.com/sundayezeilo/urlshortener/internal/linksvc"
)

// Authenticator verifies a raw bearer token and returns the caller's
// identity. internal/oidc.Verifier implements this; AUTH_PROVIDER=none
// wires a no-op stub instead (see internal/app).
type Authenticator interface {
	Verify(ctx context.Context, rawToken string) (domain.VerifiedUser, error)
}

// Handler exposes the link-lifecycle HTTP surface.
type Handler struct {
	service  *linksvc.Service
	auth     Authenticator
	logger   *slog.Logger
	baseURL  string // SHORTLINK_DOMAIN, or "" to derive from request host
}

// Config configures a Handler.
type Config struct {
	Service *linksvc.Service
	Auth    Authenticator
	Logger  *slog.Logger
	BaseURL string
}

// NewHandler builds a Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: cfg.Service, auth: cfg.Auth, logger: logger, baseURL: cfg.BaseURL}
}

type createRequest struct {
	OriginalURL string `json:"original_url"`
	Alias       string `json:"alias,omitempty"`
}

type linkResponse struct {
	Slug        string `json:"slug"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	CreatedAt   string `json:"created_at"`
	CreatedBy   string `json:"created_by"`
}

type listResponse struct {
	Links     []linkResponse `json:"links"`
	NextToken string         `json:"next_token"`
}

func toLinkResponse(link domain.ShortLink, baseURL, requestHost string) linkResponse {
	base := baseURL
	if base == "" {
		base = requestHost
	}
	return linkResponse{
		Slug:        link.Slug.String(),
		ShortURL:    strings.TrimSuffix(base, "/") + "/" + link.Slug.String(),
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:   link.CreatedBy.String(),
	}
}

// CreateLink implements POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", httpx.GetRequestID(ctx), "path", r.URL.Path)

	user, err := h.authenticate(r)
	if err != nil {
		writeAuthError(w, logger, err)
		return
	}

	req, err := httpx.DecodeJSON[createRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "decode failed", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.Create(ctx, linksvc.NewLink{OriginalURL: req.OriginalURL, Alias: req.Alias}, user.Email)
	if err != nil {
		writeCoreError(w, logger, err)
		return
	}

	logger.InfoContext(ctx, "link created", "slug", link.Slug.String())
	httpx.WriteJSON(w, http.StatusCreated, toLinkResponse(link, h.baseURL, r.Host))
}

// ResolveSlug implements GET /{slug}.
func (h *Handler) ResolveSlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", httpx.GetRequestID(ctx), "path", r.URL.Path)

	raw := strings.TrimPrefix(r.URL.Path, "/")
	slug, err := domain.NewSlug(raw)
	if err != nil {
		logger.WarnContext(ctx, "invalid slug", "slug", raw)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid slug", nil)
		return
	}

	originalURL, err := h.service.Resolve(ctx, slug)
	if err != nil {
		writeCoreError(w, logger, err)
		return
	}

	w.Header().Set("Location", originalURL)
	w.WriteHeader(http.StatusPermanentRedirect)
}

// ListLinks implements GET /api/links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", httpx.GetRequestID(ctx), "path", r.URL.Path)

	user, err := h.authenticate(r)
	if err != nil {
		writeAuthError(w, logger, err)
		return
	}
	_ = user // list is not filtered by creator; see §9 Open Questions

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid limit", nil)
		return
	}

	links, err := h.service.List(ctx, limit)
	if err != nil {
		writeCoreError(w, logger, err)
		return
	}

	resp := listResponse{Links: make([]linkResponse, 0, len(links))}
	for _, link := range links {
		resp.Links = append(resp.Links, toLinkResponse(link, h.baseURL, r.Host))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// parseLimit rejects a malformed or negative query value with an error
// (→ 400 per §8 B3); zero or absent is left to linksvc's clamp-to-default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &invalidLimitError{raw}
	}
	return n, nil
}

type invalidLimitError struct{ raw string }

func (e *invalidLimitError) Error() string { return "invalid limit: " + e.raw }

func (h *Handler) authenticate(r *http.Request) (domain.VerifiedUser, error) {
	const op = "api.authenticate"

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return domain.VerifiedUser{}, errx.E(op, errx.Unauthorized, errMissingToken)
	}
	return h.auth.Verify(r.Context(), token)
}

var errMissingToken = &authError{"missing bearer token"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

func writeAuthError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)
	logger.Warn("auth rejected", "error", err.Error(), "kind", kind.String())
	httpx.WriteError(w, status, code, "authentication failed", nil)
}

func writeCoreError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	if status >= 500 {
		logger.Error("request failed", "error", err.Error(), "op", errx.OpOf(err), "kind", kind.String())
	} else {
		logger.Warn("request rejected", "error", err.Error(), "op", errx.OpOf(err), "kind", kind.String())
	}
	httpx.WriteError(w, status, code, canonicalMessage(code), nil)
}

// canonicalMessage never echoes a backend error verbatim to clients.
func canonicalMessage(code string) string {
	switch code {
	case "not_found":
		return "short link not found"
	case "conflict":
		return "slug already in use"
	case "invalid_request":
		return "request was invalid"
	case "unauthorized":
		return "authentication required"
	case "forbidden":
		return "not permitted for this account"
	default:
		return "an internal error occurred"
	}
}
