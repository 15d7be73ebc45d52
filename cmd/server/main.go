package main

import (
	"context"
	"log"

	"github.com/sundayezeilo/urlshortener/internal/app"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			a.Logger.Error("shutdown error", "error", err.Error())
		}
	}()

	if err := a.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
