package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObjectStore is the destination for exported workbooks and listing images.
type ObjectStore interface {
	// PutObject writes body under key with the given content type.
	PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error

	// HeadBucket verifies the destination bucket exists and is reachable.
	HeadBucket(ctx context.Context) error

	// URI returns the full object URI for a key.
	URI(key string) string
}

// PartitionKey is one daily partition of the data lake layout.
type PartitionKey struct {
	Year  int
	Month int
	Day   int
}

// NewPartitionKey derives the partition for a reference date.
func NewPartitionKey(t time.Time) PartitionKey {
	return PartitionKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Path renders the Hive-style partition path segment.
func (p PartitionKey) Path() string {
	return fmt.Sprintf("year=%04d/month=%02d/day=%02d", p.Year, p.Month, p.Day)
}

// Join builds an object key from path segments, skipping empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
