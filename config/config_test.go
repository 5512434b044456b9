package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "data-collection-dl", config.Bucket)
	assert.Equal(t, "boshamlan-data", config.RootPrefix)
	assert.Equal(t, "Asia/Kuwait", config.Timezone)
	assert.Equal(t, 3, config.TrailingWindow)
	assert.Equal(t, 2*time.Second, config.ScrollDelay)
	assert.True(t, config.UploadEnabled)
	assert.Empty(t, config.Categories)

	// Test with environment variables
	os.Setenv("S3_BUCKET", "test-bucket")
	os.Setenv("TRAILING_WINDOW", "10")
	os.Setenv("SCROLL_DELAY_MS", "500")
	os.Setenv("SCRAPE_DATE", "2026-02-22")
	os.Setenv("CATEGORIES", "rent, sale")
	os.Setenv("UPLOAD_ENABLED", "false")

	config = LoadConfig()
	assert.Equal(t, "test-bucket", config.Bucket)
	assert.Equal(t, 10, config.TrailingWindow)
	assert.Equal(t, 500*time.Millisecond, config.ScrollDelay)
	assert.Equal(t, "2026-02-22", config.ReferenceDate)
	assert.Equal(t, []string{"rent", "sale"}, config.Categories)
	assert.False(t, config.UploadEnabled)

	// Clean up
	os.Unsetenv("S3_BUCKET")
	os.Unsetenv("TRAILING_WINDOW")
	os.Unsetenv("SCROLL_DELAY_MS")
	os.Unsetenv("SCRAPE_DATE")
	os.Unsetenv("CATEGORIES")
	os.Unsetenv("UPLOAD_ENABLED")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	assert.NoError(t, config.Validate())

	bad := config
	bad.TrailingWindow = 0
	assert.Error(t, bad.Validate())

	bad = config
	bad.ReferenceDate = "22-02-2026"
	assert.Error(t, bad.Validate())

	bad = config
	bad.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = config
	bad.Bucket = ""
	assert.Error(t, bad.Validate())
	bad.UploadEnabled = false
	assert.NoError(t, bad.Validate())
}
