package publisher

import "context"

// Notifier announces a finished scrape run to downstream consumers.
type Notifier interface {
	// NotifyRun publishes the run summary fields.
	NotifyRun(ctx context.Context, fields map[string]interface{}) error

	// Close closes the notifier connection.
	Close() error
}
