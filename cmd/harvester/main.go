package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/hot-promos/internal/app"
	"github.com/Adda-Baaj/hot-promos/internal/config"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/internal/pipeline"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "harvester start failed: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 1, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return 1, fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err.Error())
		return 1, err
	}
	defer harvester.Close()

	res := harvester.Run(ctx)
	out, err := json.Marshal(res)
	if err != nil {
		return 1, fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	if res.StatusCode != pipeline.StatusOK {
		return 1, nil
	}
	return 0, nil
}
