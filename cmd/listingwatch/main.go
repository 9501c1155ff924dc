package main

import (
	"context"
	"log"
	"time"

	"github.com/gabapcia/listingwatch/internal/addressbook"
	"github.com/gabapcia/listingwatch/internal/assetmeta"
	"github.com/gabapcia/listingwatch/internal/handlers/cli"
	"github.com/gabapcia/listingwatch/internal/handlers/health"
	"github.com/gabapcia/listingwatch/internal/imageresolve"
	"github.com/gabapcia/listingwatch/internal/infra/indexer/blockfrost"
	"github.com/gabapcia/listingwatch/internal/infra/notify/discord"
	"github.com/gabapcia/listingwatch/internal/infra/storage/redis"
	"github.com/gabapcia/listingwatch/internal/listingproc"
	"github.com/gabapcia/listingwatch/internal/listingwatch"
	"github.com/gabapcia/listingwatch/internal/pkg/logger"
	"github.com/gabapcia/listingwatch/internal/pkg/telemetry"
	httptransport "github.com/gabapcia/listingwatch/internal/pkg/transport/http"
	"github.com/gabapcia/listingwatch/internal/pkg/validator"
	"github.com/gabapcia/listingwatch/internal/txscan"

	"github.com/kelseyhightower/envconfig"
)

const serviceName = "listingwatch"

// appConfig is the full process configuration, loaded from the environment.
// Missing required configuration is the only condition that aborts the
// process before any cycle starts.
type appConfig struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	IndexerBaseURL   string `envconfig:"INDEXER_BASE_URL" validate:"required,url"`
	IndexerProjectID string `envconfig:"INDEXER_PROJECT_ID" validate:"required"`

	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL" validate:"required,url"`
	WebhookUsername   string `envconfig:"WEBHOOK_USERNAME"`

	StakeKeys      []string `envconfig:"STAKE_KEYS"`
	ExtraAddresses []string `envconfig:"EXTRA_ADDRESSES"`
	PolicyIDs      []string `envconfig:"POLICY_IDS" validate:"required,min=1"`

	PollInterval       time.Duration `envconfig:"POLL_INTERVAL" default:"3m"`
	MarketplaceBaseURL string        `envconfig:"MARKETPLACE_BASE_URL" default:"https://www.jpg.store"`
	MinEpoch           int64         `envconfig:"MIN_EPOCH"`

	IPFSGateways          []string `envconfig:"IPFS_GATEWAYS"`
	PlaceholderImageURL   string   `envconfig:"PLACEHOLDER_IMAGE_URL"`
	FingerprintServiceURL string   `envconfig:"FINGERPRINT_SERVICE_URL"`
	PreviewServiceURL     string   `envconfig:"PREVIEW_SERVICE_URL"`

	HealthAddr string `envconfig:"HEALTH_ADDR" default:":8080"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if err := validator.Validate(cfg); err != nil {
		log.Fatalf("validating configuration: %v", err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			log.Fatalf("initializing telemetry: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// The indexer client gets a longer per-request timeout than the image
	// probe client; asset endpoints can be slow under load.
	indexerHTTP := httptransport.NewClient(httptransport.WithTimeout(10 * time.Second))
	indexer := blockfrost.New(indexerHTTP, cfg.IndexerBaseURL, cfg.IndexerProjectID)

	book, err := addressbook.Resolve(ctx, indexer, cfg.StakeKeys, cfg.ExtraAddresses, cfg.PolicyIDs)
	if err != nil {
		logger.Fatal(ctx, "resolving watched addresses", "error", err)
	}

	scanner := txscan.New(indexer)

	detectorOpts := make([]listingwatch.Option, 0, 1)
	if cfg.MinEpoch > 0 {
		detectorOpts = append(detectorOpts, listingwatch.WithMinEpoch(cfg.MinEpoch))
	}
	detector := listingwatch.New(indexer, book.Policies(), detectorOpts...)

	assets := assetmeta.New(indexer)

	resolverOpts := make([]imageresolve.Option, 0, 4)
	if len(cfg.IPFSGateways) > 0 {
		resolverOpts = append(resolverOpts, imageresolve.WithGateways(cfg.IPFSGateways))
	}
	if cfg.PlaceholderImageURL != "" {
		resolverOpts = append(resolverOpts, imageresolve.WithPlaceholderURL(cfg.PlaceholderImageURL))
	}
	if cfg.FingerprintServiceURL != "" {
		resolverOpts = append(resolverOpts, imageresolve.WithFingerprintService(cfg.FingerprintServiceURL))
	}
	if cfg.PreviewServiceURL != "" {
		resolverOpts = append(resolverOpts, imageresolve.WithPreviewService(cfg.PreviewServiceURL))
	}
	images := imageresolve.New(resolverOpts...)

	webhookHTTP := httptransport.NewClient()
	notifierOpts := make([]discord.Option, 0, 1)
	if cfg.WebhookUsername != "" {
		notifierOpts = append(notifierOpts, discord.WithUsername(cfg.WebhookUsername))
	}
	notifier := discord.New(webhookHTTP, cfg.DiscordWebhookURL, notifierOpts...)

	monitorOpts := []listingproc.Option{
		listingproc.WithInterval(cfg.PollInterval),
		listingproc.WithMarketplaceBaseURL(cfg.MarketplaceBaseURL),
	}
	if cfg.RedisAddr != "" {
		ledger, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal(ctx, "connecting to redis", "error", err)
		}
		defer func() { _ = ledger.Close() }()

		monitorOpts = append(monitorOpts, listingproc.WithLedger(ledger))
	}

	monitor := listingproc.New(
		book.Addresses(),
		scanner,
		detector,
		assets,
		images,
		notifier,
		monitorOpts...,
	)

	healthSrv := health.NewServer(cfg.HealthAddr)

	if err := cli.Run(ctx, monitor, book, assets, images, healthSrv); err != nil {
		logger.Fatal(ctx, "listingwatch terminated with error", "error", err)
	}
}
