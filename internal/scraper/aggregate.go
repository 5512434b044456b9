package scraper

import (
	"context"
	"errors"
	"time"

	"boshamlan-scraper/helpers"
	"boshamlan-scraper/internal/catalog"
	"boshamlan-scraper/logger"
	pkgerrors "boshamlan-scraper/pkg/errors"
)

// SubcategoryResult holds the admitted records for one subcategory, plus
// the pagination error when the scrape ended early.
type SubcategoryResult struct {
	Name    string
	Records []*ListingRecord
	Err     error
}

// CategoryResult groups subcategory results under one main category,
// preserving catalog order for deterministic exports.
type CategoryResult struct {
	Name          string
	Subcategories []SubcategoryResult
}

// Aggregator iterates the static catalog and runs the pagination controller
// and extractor for every subcategory. Subcategories run sequentially; one
// browser session is scoped to one subcategory and closed on every path.
type Aggregator struct {
	Catalog        []catalog.Category
	URLTemplate    string
	NewView        func(ctx context.Context) (SearchView, error)
	Extractor      *Extractor
	Filter         *AdmissionFilter
	TrailingWindow int
	MaxIterations  int
	ScrollDelay    time.Duration
	Retry          helpers.RetryConfig
}

// Run scrapes every subcategory in the catalog. A subcategory failure is
// recorded in its result and the run proceeds; Run itself never fails.
func (a *Aggregator) Run(ctx context.Context) []CategoryResult {
	results := make([]CategoryResult, 0, len(a.Catalog))

	for _, cat := range a.Catalog {
		catResult := CategoryResult{Name: cat.Name}

		for _, sub := range cat.Subcategories {
			subResult := a.scrapeSubcategory(ctx, cat, sub)
			catResult.Subcategories = append(catResult.Subcategories, subResult)
		}

		results = append(results, catResult)
	}

	return results
}

func (a *Aggregator) scrapeSubcategory(ctx context.Context, cat catalog.Category, sub catalog.Subcategory) SubcategoryResult {
	log := logger.ForSubcategory(cat.Name, sub.Name)
	result := SubcategoryResult{Name: sub.Name}

	view, err := a.NewView(ctx)
	if err != nil {
		result.Err = pkgerrors.NewPagination(cat.Name, sub.Name, "browser session", err)
		log.Error().Err(err).Msg("Could not open browser session")
		return result
	}
	defer view.Close()

	url := catalog.SearchURL(a.URLTemplate, cat, sub)
	log.Info().Str("url", url).Msg("Scraping subcategory")

	if err := a.Retry.Do("navigate "+url, func() error {
		return view.Navigate(ctx, url)
	}); err != nil {
		result.Err = pkgerrors.NewPagination(cat.Name, sub.Name, "navigation failed", err)
		log.Error().Err(err).Msg("Navigation failed after retries")
		return result
	}

	controller := NewController(view, a.TrailingWindow, a.MaxIterations, a.ScrollDelay, a.Retry, log)
	cards, pageErr := controller.Collect(ctx, a.admissionTest())
	if pageErr != nil {
		var scrapeErr *pkgerrors.ScrapeError
		if errors.As(pageErr, &scrapeErr) {
			scrapeErr.Category = cat.Name
			scrapeErr.Subcategory = sub.Name
		}
		result.Err = pageErr
		log.Warn().Err(pageErr).Int("cards", len(cards)).Msg("Pagination stopped early, keeping partial result")
	}

	seen := make(map[string]bool, len(cards))
	for _, card := range cards {
		record, err := a.Extractor.Extract(ctx, card)
		if err != nil {
			log.Warn().Err(err).Str("source_id", card.SourceID).Msg("Skipping unparseable card")
			continue
		}

		// First occurrence wins within a subcategory.
		if seen[record.SourceID] {
			continue
		}

		publishedAt, admitted := a.Filter.Admit(record.RelativeDate, record.AbsoluteDate())
		if !admitted {
			continue
		}
		record.PublishedAt = publishedAt

		seen[record.SourceID] = true
		result.Records = append(result.Records, record)
	}

	log.Info().
		Int("cards", len(cards)).
		Int("admitted", len(result.Records)).
		Msg("Subcategory done")
	return result
}

// admissionTest is the cheap per-card freshness check the controller uses
// while scrolling: only the date text is parsed, not the whole card.
func (a *Aggregator) admissionTest() AdmissionTest {
	return func(card Card) bool {
		raw := a.Extractor.RelativeDateOf(card)
		if raw == "" {
			return false
		}
		_, admitted := a.Filter.Admit(raw, "")
		return admitted
	}
}
