package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaBridge_ResolveSlug(t *testing.T) {
	h := newTestHandler(t, &stubAuth{user: authedUser()})

	createEvent := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/links",
		Headers:    map[string]string{"Authorization": "Bearer good-token"},
		Body:       `{"original_url":"https://example.com/x","alias":"bridge-test"}`,
	}
	createFn := LambdaBridge(h.CreateLink)
	createResp, err := createFn(context.Background(), createEvent)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	resolveEvent := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/bridge-test",
	}
	resolveFn := LambdaBridge(h.ResolveSlug)
	resolveResp, err := resolveFn(context.Background(), resolveEvent)
	require.NoError(t, err)

	assert.Equal(t, http.StatusPermanentRedirect, resolveResp.StatusCode)
	assert.Equal(t, "https://example.com/x", resolveResp.Headers["Location"])
}

func TestLambdaBridge_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubAuth{user: authedUser()})
	fn := LambdaBridge(h.ResolveSlug)

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/missing"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLambdaBridge_QueryParams(t *testing.T) {
	h := newTestHandler(t, &stubAuth{user: authedUser()})
	fn := LambdaBridge(h.ListLinks)

	event := events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/api/links",
		Headers:               map[string]string{"Authorization": "Bearer good-token"},
		QueryStringParameters: map[string]string{"limit": "5"},
	}
	resp, err := fn(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
