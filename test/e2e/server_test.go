// Package e2e exercises the shared HTTP surface end to end against the
// in-memory repository, in place of the teacher's testcontainers-backed
// Postgres suite — there is no production Postgres component in this
// module to spin up a container for.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sundayezeilo/urlshortener/internal/api"
	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/linksvc"
	"github.com/sundayezeilo/urlshortener/internal/repo/memrepo"
	"github.com/sundayezeilo/urlshortener/sluggen"
)

type stubAuth struct{ user domain.VerifiedUser }

func (s stubAuth) Verify(_ context.Context, rawToken string) (domain.VerifiedUser, error) {
	if rawToken == "" {
		return domain.VerifiedUser{}, fmt.Errorf("missing token")
	}
	return s.user, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestApp(t *testing.T) *api.Handler {
	t.Helper()
	email, err := domain.NewUserEmail("alice@acme.com")
	if err != nil {
		t.Fatalf("build test user: %v", err)
	}
	svc := linksvc.New(memrepo.New(), sluggen.NewBase62(), domain.RealClock{}, 0)
	return api.NewHandler(api.Config{
		Service: svc,
		Auth:    stubAuth{user: domain.VerifiedUser{Email: email, EmailVerified: true, HD: "acme.com"}},
		Logger:  testLogger(),
		BaseURL: "http://localhost:8080",
	})
}

func TestCreateLink_E2E(t *testing.T) {
	h := newTestApp(t)

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, map[string]any)
	}{
		{
			name:           "create link with auto-generated slug",
			requestBody:    map[string]string{"original_url": "https://example.com/test"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp map[string]any) {
				if resp["slug"] == nil || resp["slug"] == "" {
					t.Error("expected slug to be generated")
				}
				if resp["original_url"] != "https://example.com/test" {
					t.Errorf("expected original_url 'https://example.com/test', got %v", resp["original_url"])
				}
				if resp["short_url"] == nil {
					t.Error("expected short_url to be set")
				}
			},
		},
		{
			name:           "create link with custom alias",
			requestBody:    map[string]string{"original_url": "https://example.com/custom", "alias": "my-custom-slug"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp map[string]any) {
				if resp["slug"] != "my-custom-slug" {
					t.Errorf("expected slug 'my-custom-slug', got %v", resp["slug"])
				}
			},
		},
		{
			name:           "missing original_url",
			requestBody:    map[string]string{},
			expectedStatus: http.StatusBadRequest,
			checkResponse:  func(t *testing.T, resp map[string]any) {},
		},
		{
			name:           "invalid url format",
			requestBody:    map[string]string{"original_url": "not-a-valid-url"},
			expectedStatus: http.StatusBadRequest,
			checkResponse:  func(t *testing.T, resp map[string]any) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer test-token")
			rr := httptest.NewRecorder()

			h.CreateLink(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated {
				var response map[string]any
				if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestResolveLink_E2E(t *testing.T) {
	h := newTestApp(t)

	createBody, _ := json.Marshal(map[string]string{
		"original_url": "https://example.com/redirect-test",
		"alias":        "test-redirect",
	})
	createReq := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(createBody))
	createReq.Header.Set("Authorization", "Bearer test-token")
	createRR := httptest.NewRecorder()
	h.CreateLink(createRR, createReq)
	if createRR.Code != http.StatusCreated {
		t.Fatalf("failed to create link: status %d", createRR.Code)
	}

	tests := []struct {
		name           string
		slug           string
		expectedStatus int
		expectedURL    string
	}{
		{name: "resolve existing slug", slug: "test-redirect", expectedStatus: http.StatusPermanentRedirect, expectedURL: "https://example.com/redirect-test"},
		{name: "resolve non-existent slug", slug: "non-existent", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.slug, nil)
			rr := httptest.NewRecorder()

			h.ResolveSlug(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if tt.expectedStatus == http.StatusPermanentRedirect {
				if loc := rr.Header().Get("Location"); loc != tt.expectedURL {
					t.Errorf("expected location %s, got %s", tt.expectedURL, loc)
				}
			}
		})
	}
}

func TestDuplicateAlias_E2E(t *testing.T) {
	h := newTestApp(t)

	body, _ := json.Marshal(map[string]string{"original_url": "https://example.com/first", "alias": "duplicate-test"})
	req1 := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(body))
	req1.Header.Set("Authorization", "Bearer test-token")
	rr1 := httptest.NewRecorder()
	h.CreateLink(rr1, req1)
	if rr1.Code != http.StatusCreated {
		t.Fatalf("failed to create first link: status %d", rr1.Code)
	}

	body2, _ := json.Marshal(map[string]string{"original_url": "https://example.com/second", "alias": "duplicate-test"})
	req2 := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(body2))
	req2.Header.Set("Authorization", "Bearer test-token")
	rr2 := httptest.NewRecorder()
	h.CreateLink(rr2, req2)

	if rr2.Code != http.StatusConflict {
		t.Errorf("expected status 409 (conflict), got %d", rr2.Code)
	}

	var errorResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr2.Body).Decode(&errorResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errorResp.Error.Code != "conflict" {
		t.Errorf("expected error code 'conflict', got %v", errorResp.Error.Code)
	}
}

func TestListLinks_E2E(t *testing.T) {
	h := newTestApp(t)

	for i := 0; i < 3; i++ {
		body, _ := json.Marshal(map[string]string{
			"original_url": fmt.Sprintf("https://example.com/list-%d", i),
			"alias":        fmt.Sprintf("list-alias-%d", i),
		})
		req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer test-token")
		rr := httptest.NewRecorder()
		h.CreateLink(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("failed to create link %d: status %d", i, rr.Code)
		}
		time.Sleep(time.Millisecond) // ensure distinct created_at for ordering
	}

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rr := httptest.NewRecorder()
	h.ListLinks(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Links []map[string]any `json:"links"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Links) != 3 {
		t.Errorf("expected 3 links, got %d", len(resp.Links))
	}
}

func TestConcurrentLinkCreation_E2E(t *testing.T) {
	h := newTestApp(t)

	concurrency := 10
	slugs := make([]string, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	errs := make([]error, 0)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"original_url": fmt.Sprintf("https://example.com/concurrent-%d", index)})
			req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer test-token")
			rr := httptest.NewRecorder()

			h.CreateLink(rr, req)
			if rr.Code != http.StatusCreated {
				mu.Lock()
				errs = append(errs, fmt.Errorf("request %d failed with status %d", index, rr.Code))
				mu.Unlock()
				return
			}

			var response map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			slugs[index] = response["slug"].(string)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		t.Errorf("concurrent request failed: %v", err)
	}

	seen := make(map[string]bool, concurrency)
	for _, slug := range slugs {
		if seen[slug] {
			t.Errorf("duplicate slug generated: %s", slug)
		}
		seen[slug] = true
	}
	if len(seen) != concurrency {
		t.Errorf("expected %d unique slugs, got %d", concurrency, len(seen))
	}
}
