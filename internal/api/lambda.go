package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/sundayezeilo/urlshortener/internal/httpx"
)

// LambdaBridge adapts a plain http.HandlerFunc to API Gateway's proxy
// integration contract, so cmd/redirect-lambda and cmd/api-lambda can run
// the exact same handlers internal/server uses. There is no ambient
// net/http server in a Lambda invocation, so the bridge rebuilds an
// *http.Request from the proxy event, drives the handler with
// httptest.NewRecorder in place of a live ResponseWriter, and translates
// the recorded response back into an APIGatewayProxyResponse.
func LambdaBridge(handler http.HandlerFunc) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := toHTTPRequest(ctx, event)
		if err != nil {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "malformed request"}, nil
		}

		rec := httptest.NewRecorder()
		if id := httpx.GetRequestID(req.Context()); id != "" {
			rec.Header().Set(httpx.RequestIDHeader, id)
		}
		handler(rec, req)

		return toProxyResponse(rec), nil
	}
}

func toHTTPRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	u := &url.URL{Path: event.Path}
	query := url.Values{}
	for k, v := range event.QueryStringParameters {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, u.String(), bytes.NewBufferString(event.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	id := req.Header.Get(httpx.RequestIDHeader)
	if id == "" {
		id = event.RequestContext.RequestID
	}
	if id != "" {
		req = req.WithContext(httpx.WithRequestID(ctx, id))
	}
	req.Host = event.Headers["Host"]
	return req, nil
}

func toProxyResponse(rec *httptest.ResponseRecorder) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(rec.Header()))
	for k := range rec.Header() {
		headers[k] = rec.Header().Get(k)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: rec.Code,
		Headers:    headers,
		Body:       strings.TrimRight(rec.Body.String(), "\n"),
	}
}
