package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/hot-promos/internal/broadcast"
	"github.com/Adda-Baaj/hot-promos/internal/config"
	"github.com/Adda-Baaj/hot-promos/internal/crawler"
	"github.com/Adda-Baaj/hot-promos/internal/logger"
	"github.com/Adda-Baaj/hot-promos/internal/persist"
	"github.com/Adda-Baaj/hot-promos/internal/pipeline"
	"github.com/Adda-Baaj/hot-promos/internal/retry"
	"github.com/Adda-Baaj/hot-promos/internal/storage"
	"github.com/Adda-Baaj/hot-promos/pkg/httpclient"
	"github.com/Adda-Baaj/hot-promos/pkg/providers"
	"github.com/Adda-Baaj/hot-promos/pkg/publishers"
)

// history scans get more headroom than single writes.
const historyTimeoutFactor = 4

// Harvester is the promo harvester runtime. It owns the store and publisher connections
// and runs the pipeline once per Run call.
type Harvester struct {
	cfg         *config.Config
	providerReg *providers.Registry
	fanout      *publishers.Fanout
	store       storage.Store
	pipeline    *pipeline.Pipeline
	log         logger.Logger
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		Timeout:      cfg.FetchTimeout,
		RetryCount:   1,
		RetryWait:    200 * time.Millisecond,
		RetryMaxWait: time.Second,
	})
	return newHarvester(ctx, cfg, log, providers.DefaultAdapters(client), publishers.DefaultRegistry())
}

func newHarvester(ctx context.Context, cfg *config.Config, log logger.Logger, fetchers providers.FetcherRegistry, pubRegistry publishers.Registry) (*Harvester, error) {
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, pubRegistry, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(ctx, cfg.StorageType, storage.Options{
		Table:              cfg.StoreTable,
		BBoltPath:          cfg.BBoltPath,
		AWSRegion:          cfg.AWSRegion,
		DynamoDBEndpoint:   cfg.DynamoDBEndpoint,
		AWSAccessKeyID:     cfg.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.AWSSecretAccessKey,
		PostgresDSN:        cfg.PostgresDSN,
		RedisAddr:          cfg.RedisAddr,
		RedisPassword:      cfg.RedisPassword,
		RedisDB:            cfg.RedisDB,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":  cfg.StorageType,
		"table": cfg.StoreTable,
	})

	collector := crawler.NewCollector(fetchers, crawler.Options{
		PageDepth:     cfg.PageDepth,
		Concurrency:   cfg.FetchConcurrency,
		PageTimeout:   cfg.FetchTimeout,
		FailurePolicy: cfg.FetchFailurePolicy,
	}, log)

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.StoreRetryAttempts
	persister := persist.New(store, persist.Options{
		WriteTimeout:  cfg.StoreTimeout,
		Retry:         policy,
		FailurePolicy: cfg.StoreFailurePolicy,
	}, log)

	pl, err := pipeline.New(pipeline.Deps{
		Providers:      providerList,
		Collector:      collector,
		History:        store,
		Persister:      persister,
		Broadcaster:    broadcast.New(fanout, cfg.SendTimeout, log),
		HistoryTimeout: cfg.StoreTimeout * historyTimeoutFactor,
		Log:            log,
	})
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, err
	}

	return &Harvester{
		cfg:         cfg,
		providerReg: providerReg,
		fanout:      fanout,
		store:       store,
		pipeline:    pl,
		log:         log,
	}, nil
}

// Run executes a single harvest pass.
func (h *Harvester) Run(ctx context.Context) pipeline.Result {
	if h == nil || h.pipeline == nil {
		return pipeline.Failure(errors.New("harvester is not initialized"))
	}

	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"providers_count":  len(h.providerReg.All()),
		"publishers_count": h.fanout.Size(),
		"started_at":       time.Now().UTC(),
	})
	return h.pipeline.Run(ctx)
}

// Close releases the store and publisher connections, logging any errors encountered.
func (h *Harvester) Close() {
	if h == nil {
		return
	}
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publishers close failed", "error", err.Error())
		}
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
