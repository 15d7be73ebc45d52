// Command api-lambda serves the admin API (POST/GET/OPTIONS /api/links)
// behind API Gateway, dispatching to the same handlers internal/server
// exposes over plain net/http.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sundayezeilo/urlshortener/internal/api"
	"github.com/sundayezeilo/urlshortener/internal/app"
	"github.com/sundayezeilo/urlshortener/internal/httpx"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	lambda.Start(route(a.Handler))
}

// route dispatches by method, mirroring internal/server's mux for the
// /api/links endpoints; OPTIONS is answered directly since there is no
// middleware chain to short-circuit it the way httpx.CORS does for the
// long-lived server.
func route(handler *api.Handler) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	create := api.LambdaBridge(handler.CreateLink)
	list := api.LambdaBridge(handler.ListLinks)

	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if event.HTTPMethod == http.MethodOptions {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusNoContent,
				Headers:    httpx.CORSHeaders(),
			}, nil
		}

		switch event.HTTPMethod {
		case http.MethodPost:
			return create(ctx, event)
		case http.MethodGet:
			return list(ctx, event)
		default:
			return events.APIGatewayProxyResponse{StatusCode: http.StatusMethodNotAllowed}, nil
		}
	}
}
