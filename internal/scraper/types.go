package scraper

import (
	"context"
	"time"

	"boshamlan-scraper/services/api"
)

// Card is one raw listing card as read from the search view: the stable
// post identifier plus the card's outer HTML fragment.
type Card struct {
	SourceID string
	HTML     string
}

// ListingRecord is one scraped property listing merged from card markup
// and the backing API.
type ListingRecord struct {
	SourceID     string
	Title        string
	Description  string
	Price        string
	RelativeDate string
	PublishedAt  time.Time
	IsFeatured   bool
	ImageURL     string
	DetailURL    string
	Contact      string
	ViewCount    int

	// apiCreatedAt is the raw absolute timestamp from the API, trusted over
	// RelativeDate when resolving PublishedAt.
	apiCreatedAt string
}

// AbsoluteDate returns the raw absolute publish timestamp if the API
// supplied one.
func (r *ListingRecord) AbsoluteDate() string {
	return r.apiCreatedAt
}

// SetAbsoluteDate records the raw absolute publish timestamp.
func (r *ListingRecord) SetAbsoluteDate(raw string) {
	r.apiCreatedAt = raw
}

// SearchView is the headless-browser session over one search result page.
// The controller treats it as an opaque capability.
type SearchView interface {
	// Navigate opens the search URL and waits for the first cards.
	Navigate(ctx context.Context, url string) error

	// Cards returns the currently visible cards, in page order.
	Cards(ctx context.Context) ([]Card, error)

	// LoadMore reveals more results (show-more button or scroll).
	LoadMore(ctx context.Context) error

	// Close releases the browser session.
	Close() error
}

// ListingAPI looks up the structured record for a source identifier.
type ListingAPI interface {
	Lookup(ctx context.Context, sourceID string) (*api.Listing, error)
}

// SelectorSet holds the ordered candidate selectors for each card field.
// Strategies are tried in order and the first one yielding a non-empty
// match wins, which tolerates markup drift without a single fragile path.
type SelectorSet struct {
	RelativeDate []string
	Title        []string
	Price        []string
	Description  []string
	Image        []string
	Featured     []string
}

// DefaultSelectors returns the selector strategies for the current site markup,
// newest first with older generations kept as fallbacks.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		RelativeDate: []string{
			"time span",
			".rounded.text-xs.flex.items-center.gap-1",
		},
		Title: []string{
			"h3",
			".font-bold.text-lg.text-dark.line-clamp-2.break-words",
		},
		Price: []string{
			".rounded.font-bold.text-primary-dark",
			"[class*=price]",
		},
		Description: []string{
			"p.text-sm.line-clamp-2",
			".line-clamp-2:nth-of-type(2)",
		},
		Image: []string{
			"img[alt=Post]",
			"img",
		},
		Featured: []string{
			"[class*=featured]",
			".bg-gold",
		},
	}
}
