package worker

import (
	"context"
	"time"

	"boshamlan-scraper/internal/office"
	"boshamlan-scraper/internal/scraper"
	"boshamlan-scraper/logger"
	"boshamlan-scraper/services/publisher"
	"boshamlan-scraper/services/uploader"
)

// Runner drives one end-to-end scrape run: store precondition, category
// scrape, image stage, workbook stage, office directory, run notification.
// Optional stages are disabled by leaving their component nil.
type Runner struct {
	Aggregator *scraper.Aggregator
	Offices    *office.Directory
	Publisher  *uploader.Publisher
	Notifier   publisher.Notifier

	log *logger.Logger
}

// RunSummary is the outcome of one run, logged and optionally published.
// CategoryFailures counts failed subcategories per category name.
type RunSummary struct {
	ReferenceDate       string
	Categories          int
	Subcategories       int
	RecordsAdmitted     int
	SubcategoryFailures int
	CategoryFailures    map[string]int
	ImagesUploaded      int
	ImagesFailed        int
	ArtifactsUploaded   int
	ArtifactFailures    int
	Offices             int
	OfficeListings      int
	StartedAt           time.Time
	FinishedAt          time.Time
}

// Fields renders the summary for the stream notifier.
func (s *RunSummary) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"reference_date":       s.ReferenceDate,
		"categories":           s.Categories,
		"subcategories":        s.Subcategories,
		"records_admitted":     s.RecordsAdmitted,
		"subcategory_failures": s.SubcategoryFailures,
		"images_uploaded":      s.ImagesUploaded,
		"images_failed":        s.ImagesFailed,
		"artifacts_uploaded":   s.ArtifactsUploaded,
		"artifact_failures":    s.ArtifactFailures,
		"offices":              s.Offices,
		"office_listings":      s.OfficeListings,
		"duration_seconds":     int(s.FinishedAt.Sub(s.StartedAt).Seconds()),
	}
	for category, failed := range s.CategoryFailures {
		fields["failures_"+category] = failed
	}
	return fields
}

// NewRunner assembles a runner from its stages.
func NewRunner(agg *scraper.Aggregator, offices *office.Directory, pub *uploader.Publisher, notifier publisher.Notifier) *Runner {
	return &Runner{
		Aggregator: agg,
		Offices:    offices,
		Publisher:  pub,
		Notifier:   notifier,
		log:        logger.ForWorker(),
	}
}

// Run executes the pipeline. Only the store precondition fails the run;
// every later failure is absorbed into the summary so one bad subcategory,
// image, or workbook never costs the rest of the day's data.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		ReferenceDate:    r.Aggregator.Filter.Reference().Format("2006-01-02"),
		CategoryFailures: make(map[string]int),
		StartedAt:        time.Now(),
	}

	// Fail before scraping if the destination is unusable, not after.
	if r.Publisher != nil {
		if err := r.Publisher.CheckStore(ctx); err != nil {
			return nil, err
		}
		r.log.Info().Msg("Object store reachable")
	}

	results := r.Aggregator.Run(ctx)
	for _, cat := range results {
		summary.Categories++
		for _, sub := range cat.Subcategories {
			summary.Subcategories++
			summary.RecordsAdmitted += len(sub.Records)
			if sub.Err != nil {
				summary.SubcategoryFailures++
				summary.CategoryFailures[cat.Name]++
			}
		}
	}

	if r.Publisher != nil {
		images := r.Publisher.PublishImages(ctx, results)
		summary.ImagesUploaded = len(images.Paths)
		summary.ImagesFailed = images.Failed

		uploaded, failures := r.Publisher.PublishTables(ctx, results, images.Paths)
		summary.ArtifactsUploaded = len(uploaded)
		summary.ArtifactFailures = len(failures)
	}

	if r.Offices != nil {
		offices, listings, err := r.Offices.Collect()
		if err != nil {
			r.log.Warn().Err(err).Msg("Office directory failed, continuing without it")
		} else {
			summary.Offices = len(offices)
			summary.OfficeListings = len(listings)
			if r.Publisher != nil {
				uploaded, failures := r.Publisher.PublishOffices(ctx, offices, listings)
				summary.ArtifactsUploaded += len(uploaded)
				summary.ArtifactFailures += len(failures)
			}
		}
	}

	summary.FinishedAt = time.Now()
	r.log.Info().
		Int("records_admitted", summary.RecordsAdmitted).
		Int("subcategory_failures", summary.SubcategoryFailures).
		Int("images_uploaded", summary.ImagesUploaded).
		Int("artifacts_uploaded", summary.ArtifactsUploaded).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Run finished")

	if r.Notifier != nil {
		if err := r.Notifier.NotifyRun(ctx, summary.Fields()); err != nil {
			r.log.Warn().Err(err).Msg("Run notification failed")
		}
	}

	return summary, nil
}
