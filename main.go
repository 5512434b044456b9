package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"boshamlan-scraper/config"
	"boshamlan-scraper/helpers"
	"boshamlan-scraper/internal/browser"
	"boshamlan-scraper/internal/catalog"
	"boshamlan-scraper/internal/office"
	"boshamlan-scraper/internal/scraper"
	"boshamlan-scraper/logger"
	"boshamlan-scraper/services/api"
	"boshamlan-scraper/services/cache"
	"boshamlan-scraper/services/publisher"
	"boshamlan-scraper/services/storage"
	"boshamlan-scraper/services/uploader"
	"boshamlan-scraper/services/worker"
)

func main() {
	// Load environment variables from .env file if exists
	_ = godotenv.Load()

	logger.Init()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal %v, shutting down", sig)
		cancel()
	}()

	filter, err := buildFilter(cfg)
	if err != nil {
		logger.Fatal("Cannot build admission window: %v", err)
	}
	start, end := filter.Window()
	logger.Info("Admission window %s .. %s", start.Format(time.RFC3339), end.Format(time.RFC3339))

	runner := buildRunner(ctx, cfg, filter)
	if runner.Notifier != nil {
		defer runner.Notifier.Close()
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("Run aborted: %v", err)
	}
	logger.Info("Scrape finished: %d records admitted, %d subcategory failures",
		summary.RecordsAdmitted, summary.SubcategoryFailures)
}

// buildFilter anchors the admission window at the configured reference
// date, or at the current day in the source timezone.
func buildFilter(cfg config.Config) (*scraper.AdmissionFilter, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	reference := time.Now().In(loc)
	if cfg.ReferenceDate != "" {
		reference, err = time.ParseInLocation("2006-01-02", cfg.ReferenceDate, loc)
		if err != nil {
			return nil, err
		}
		// An explicit date means "that whole day"; anchor relative text at
		// its end so "3 hours ago" still lands inside it.
		reference = reference.Add(23*time.Hour + 59*time.Minute)
	}

	return scraper.NewAdmissionFilter(reference, cfg.WindowDays, loc), nil
}

// buildRunner wires every pipeline stage from the configuration.
func buildRunner(ctx context.Context, cfg config.Config, filter *scraper.AdmissionFilter) *worker.Runner {
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using memcache at %s for API responses", cfg.MemcacheAddr)
	} else {
		cacheSvc = cache.NewMemoryService()
	}

	apiClient := api.NewClient(cfg.ListingsAPIURL, cacheSvc, cfg.APICacheTTL)
	extractor := scraper.NewExtractor(scraper.DefaultSelectors(), apiClient, cfg.SiteBaseURL)

	retry := helpers.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second}

	aggregator := &scraper.Aggregator{
		Catalog:     catalog.Select(cfg.Categories),
		URLTemplate: cfg.SearchURLTemplate,
		NewView: func(ctx context.Context) (scraper.SearchView, error) {
			return browser.NewSession(ctx, browser.Options{
				ChromePath: cfg.ChromePath,
				Headless:   cfg.Headless,
			})
		},
		Extractor:      extractor,
		Filter:         filter,
		TrailingWindow: cfg.TrailingWindow,
		MaxIterations:  cfg.MaxIterations,
		ScrollDelay:    cfg.ScrollDelay,
		Retry:          retry,
	}

	var pub *uploader.Publisher
	if cfg.UploadEnabled {
		store, err := storage.NewS3Store(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			logger.Fatal("Cannot initialize object store: %v", err)
		}
		partition := storage.NewPartitionKey(filter.Reference())
		pub = uploader.NewPublisher(store, cfg.RootPrefix, cfg.PropertiesDataset,
			cfg.OfficesDataset, partition, cfg.ImageWorkers)
	} else {
		logger.Info("Uploads disabled, scraping only")
	}

	var notifier publisher.Notifier
	if cfg.RedisAddr != "" {
		n, err := publisher.NewRedisNotifier(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		if err != nil {
			logger.Warn("Redis unavailable, run notifications disabled: %v", err)
		} else {
			notifier = n
		}
	}

	offices := office.NewDirectory(cfg.AgentsURL, filter)

	return worker.NewRunner(aggregator, offices, pub, notifier)
}
