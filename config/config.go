package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Scrape target
	SiteBaseURL       string
	SearchURLTemplate string
	AgentsURL         string
	ListingsAPIURL    string

	// Admission window
	ReferenceDate string // YYYY-MM-DD override; empty means run time
	WindowDays    int    // days before the reference date included in the window
	Timezone      string // source-local timezone used to anchor relative dates

	// Pagination
	TrailingWindow int
	MaxIterations  int
	ScrollDelay    time.Duration
	MaxRetries     int

	// Browser
	ChromePath string
	Headless   bool

	// S3 destination
	Bucket            string
	RootPrefix        string
	PropertiesDataset string
	OfficesDataset    string
	Region            string
	UploadEnabled     bool

	// Image resolution
	ImageWorkers int

	// Category selection; empty means all
	Categories []string

	// Optional services
	MemcacheAddr string
	APICacheTTL  time.Duration
	RedisAddr    string
	RedisDB      int
	RedisStream  string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	windowDays, _ := strconv.Atoi(getEnv("WINDOW_DAYS", "1"))
	trailingWindow, _ := strconv.Atoi(getEnv("TRAILING_WINDOW", "3"))
	maxIterations, _ := strconv.Atoi(getEnv("MAX_SCROLL_ITERATIONS", "60"))
	scrollDelay, _ := strconv.Atoi(getEnv("SCROLL_DELAY_MS", "2000"))
	maxRetries, _ := strconv.Atoi(getEnv("MAX_RETRIES", "3"))
	imageWorkers, _ := strconv.Atoi(getEnv("IMAGE_WORKERS", "4"))
	apiCacheTTL, _ := strconv.Atoi(getEnv("API_CACHE_TTL_SECONDS", "600"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	var categories []string
	if raw := getEnv("CATEGORIES", ""); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
	}

	return Config{
		SiteBaseURL:       getEnv("SITE_BASE_URL", "https://www.boshamlan.com"),
		SearchURLTemplate: getEnv("SEARCH_URL_TEMPLATE", "https://www.boshamlan.com/search?c=%d&t=%d"),
		AgentsURL:         getEnv("AGENTS_URL", "https://www.boshamlan.com/agents"),
		ListingsAPIURL:    getEnv("LISTINGS_API_URL", "https://api-v2.boshamlan.com/api/listings"),
		ReferenceDate:     getEnv("SCRAPE_DATE", ""),
		WindowDays:        windowDays,
		Timezone:          getEnv("SOURCE_TIMEZONE", "Asia/Kuwait"),
		TrailingWindow:    trailingWindow,
		MaxIterations:     maxIterations,
		ScrollDelay:       time.Duration(scrollDelay) * time.Millisecond,
		MaxRetries:        maxRetries,
		ChromePath:        getEnv("CHROME_BIN", ""),
		Headless:          getEnv("HEADLESS", "true") != "false",
		Bucket:            getEnv("S3_BUCKET", "data-collection-dl"),
		RootPrefix:        getEnv("S3_ROOT_PREFIX", "boshamlan-data"),
		PropertiesDataset: getEnv("PROPERTIES_DATASET", "properties"),
		OfficesDataset:    getEnv("OFFICES_DATASET", "offices"),
		Region:            getEnv("AWS_REGION", "us-east-1"),
		UploadEnabled:     getEnv("UPLOAD_ENABLED", "true") != "false",
		ImageWorkers:      imageWorkers,
		Categories:        categories,
		MemcacheAddr:      getEnv("MEMCACHE_ADDR", ""),
		APICacheTTL:       time.Duration(apiCacheTTL) * time.Second,
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisDB:           redisDB,
		RedisStream:       getEnv("REDIS_STREAM", "scrape-runs"),
		Environment:       getEnv("SCRAPER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Bucket == "" && c.UploadEnabled {
		return fmt.Errorf("S3_BUCKET must be set when uploads are enabled")
	}
	if c.TrailingWindow < 1 {
		return fmt.Errorf("TRAILING_WINDOW must be at least 1, got %d", c.TrailingWindow)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("MAX_SCROLL_ITERATIONS must be at least 1, got %d", c.MaxIterations)
	}
	if c.WindowDays < 0 {
		return fmt.Errorf("WINDOW_DAYS must not be negative, got %d", c.WindowDays)
	}
	if c.ImageWorkers < 1 {
		return fmt.Errorf("IMAGE_WORKERS must be at least 1, got %d", c.ImageWorkers)
	}
	if c.ReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", c.ReferenceDate); err != nil {
			return fmt.Errorf("SCRAPE_DATE must be YYYY-MM-DD: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("SOURCE_TIMEZONE is not a valid IANA zone: %w", err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
