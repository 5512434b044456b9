package scraper

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"boshamlan-scraper/logger"
	pkgerrors "boshamlan-scraper/pkg/errors"
)

// Extractor turns one raw card into a canonical ListingRecord by parsing
// the card markup and overlaying the backing API record for the same
// source identifier.
type Extractor struct {
	Selectors SelectorSet
	API       ListingAPI
	BaseURL   string
	log       *logger.Logger
}

// NewExtractor creates an extractor for one scrape run.
func NewExtractor(selectors SelectorSet, apiClient ListingAPI, baseURL string) *Extractor {
	if logger.Default == nil {
		logger.Init()
	}
	return &Extractor{
		Selectors: selectors,
		API:       apiClient,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		log:       logger.Default.WithField("component", "extractor"),
	}
}

// Extract parses the card and merges in the API record. Descriptive fields
// (title, description, price, image, contact, views) prefer the API value;
// the featured flag and the source identifier always come from markup.
// An API failure degrades to the markup-only record instead of dropping it.
func (e *Extractor) Extract(ctx context.Context, card Card) (*ListingRecord, error) {
	if card.SourceID == "" {
		return nil, pkgerrors.NewExtraction("", "", "card without source identifier", nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(card.HTML))
	if err != nil {
		return nil, pkgerrors.NewExtraction("", "", "unparseable card markup", err).WithSourceID(card.SourceID)
	}

	record := &ListingRecord{
		SourceID:     card.SourceID,
		Title:        e.firstMatch(doc, e.Selectors.Title),
		Price:        e.firstMatch(doc, e.Selectors.Price),
		Description:  e.firstMatch(doc, e.Selectors.Description),
		RelativeDate: e.firstMatch(doc, e.Selectors.RelativeDate),
		ImageURL:     e.firstAttr(doc, e.Selectors.Image, "src"),
		IsFeatured:   e.anyPresent(doc, e.Selectors.Featured),
	}

	if record.Title == "" && record.RelativeDate == "" {
		return nil, pkgerrors.NewExtraction("", "", "no strategy matched any field", nil).WithSourceID(card.SourceID)
	}

	e.overlayAPI(ctx, record)
	return record, nil
}

// overlayAPI fills descriptive fields from the backing API and records the
// absolute created_at so the admission filter can prefer it over relative text.
func (e *Extractor) overlayAPI(ctx context.Context, record *ListingRecord) {
	if e.API == nil {
		return
	}

	listing, err := e.API.Lookup(ctx, record.SourceID)
	if err != nil {
		// Partial data beats data loss; the markup-derived record stands.
		e.log.Warn().Err(err).Str("source_id", record.SourceID).Msg("API lookup failed, keeping markup fields")
		return
	}

	if listing.TitleAr != "" {
		record.Title = listing.TitleAr
	}
	if listing.DescriptionAr != "" {
		record.Description = listing.DescriptionAr
	}
	if listing.Price.String() != "" {
		record.Price = listing.Price.String()
	}
	if listing.Contact != "" {
		record.Contact = listing.Contact
	}
	if listing.Views > 0 {
		record.ViewCount = listing.Views
	}
	if len(listing.Images) > 0 && listing.Images[0].Path != "" {
		record.ImageURL = listing.Images[0].Path
	}
	if listing.Slug != "" {
		record.DetailURL = e.BaseURL + "/" + strings.TrimLeft(listing.Slug, "/") + "/" + record.SourceID
	}
	if listing.CreatedAt != "" {
		record.apiCreatedAt = listing.CreatedAt
	}
}

// firstMatch tries the ordered strategies and returns the first non-empty text.
func (e *Extractor) firstMatch(doc *goquery.Document, strategies []string) string {
	for _, selector := range strategies {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(sel.First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstAttr tries the ordered strategies and returns the first non-empty attribute.
func (e *Extractor) firstAttr(doc *goquery.Document, strategies []string, attr string) string {
	for _, selector := range strategies {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if val, ok := sel.First().Attr(attr); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// anyPresent reports whether any strategy matches at least one element.
func (e *Extractor) anyPresent(doc *goquery.Document, strategies []string) bool {
	for _, selector := range strategies {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}
	return false
}

// RelativeDateOf parses only the card's date text, for the pagination
// controller's per-card freshness test.
func (e *Extractor) RelativeDateOf(card Card) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(card.HTML))
	if err != nil {
		return ""
	}
	return e.firstMatch(doc, e.Selectors.RelativeDate)
}

// ParseViews converts a formatted view counter ("1,234") to an integer.
func ParseViews(raw string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}
