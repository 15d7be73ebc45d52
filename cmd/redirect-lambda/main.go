// Command redirect-lambda serves GET /{slug} behind API Gateway, reusing
// the same resolve handler internal/server exposes over plain net/http.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sundayezeilo/urlshortener/internal/api"
	"github.com/sundayezeilo/urlshortener/internal/app"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	lambda.Start(api.LambdaBridge(a.Handler.ResolveSlug))
}
