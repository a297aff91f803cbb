package main

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/hot-promos/internal/app"
	"github.com/Adda-Baaj/hot-promos/internal/config"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/internal/pipeline"
	"github.com/Adda-Baaj/hot-promos/internal/storage"
	"github.com/aws/aws-lambda-go/lambda"
)

// response is the API Gateway style payload the scheduled function returns.
type response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type handler struct {
	cfg *config.Config
	log logger.Logger
}

// Handle builds a fresh harvester per invocation so connections never outlive a run.
func (h handler) Handle(ctx context.Context) (response, error) {
	harvester, err := app.NewHarvester(ctx, h.cfg, h.log)
	if err != nil {
		res := pipeline.Failure(fmt.Errorf("init harvester: %w", err))
		return response{StatusCode: res.StatusCode, Body: res.Body}, nil
	}
	defer harvester.Close()

	res := harvester.Run(ctx)
	return response{StatusCode: res.StatusCode, Body: res.Body}, nil
}

func main() {
	// the function filesystem is ephemeral, so history lives in DynamoDB unless STORE_TYPE says otherwise
	cfg, err := config.LoadWithDefaults(map[string]any{"store_type": storage.TypeDynamoDB})
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	log, err := logger.Init(cfg)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer logger.Close()

	logger.InfoObj("lambda handler starting", "config", cfg.Summary())
	lambda.Start(handler{cfg: cfg, log: log}.Handle)
}
