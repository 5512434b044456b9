package uploader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"boshamlan-scraper/helpers"
	"boshamlan-scraper/internal/office"
	"boshamlan-scraper/internal/scraper"
	"boshamlan-scraper/logger"
	pkgerrors "boshamlan-scraper/pkg/errors"
	"boshamlan-scraper/services/export"
	"boshamlan-scraper/services/storage"
)

// Publisher moves a run's artifacts into the object store under the daily
// partition: listing images first, then the workbooks that reference them.
type Publisher struct {
	Store          storage.ObjectStore
	RootPrefix     string
	Dataset        string
	OfficesDataset string
	Partition      storage.PartitionKey
	ImageWorkers   int

	// Fetch downloads one image; swapped out in tests.
	Fetch func(url string) ([]byte, string, error)

	log *logger.Logger
}

// ImageResult is the outcome of the image stage: the URL to stored-URI
// mapping for workbook rows, plus failure count for the run summary.
type ImageResult struct {
	Paths  map[string]string
	Failed int
}

// NewPublisher creates a publisher for one run's partition.
func NewPublisher(store storage.ObjectStore, rootPrefix, dataset, officesDataset string, partition storage.PartitionKey, imageWorkers int) *Publisher {
	if imageWorkers < 1 {
		imageWorkers = 1
	}
	return &Publisher{
		Store:          store,
		RootPrefix:     rootPrefix,
		Dataset:        dataset,
		OfficesDataset: officesDataset,
		Partition:      partition,
		ImageWorkers:   imageWorkers,
		Fetch:          helpers.FetchBytes,
		log:            logger.ForUploader(),
	}
}

// CheckStore verifies the destination bucket before any scraping work
// starts. Its error is run-fatal.
func (p *Publisher) CheckStore(ctx context.Context) error {
	return p.Store.HeadBucket(ctx)
}

// PublishImages uploads every distinct listing image exactly once and
// returns the URL to stored-URI mapping. A URL appearing under several
// subcategories is keyed under the first category it was seen in. A failed
// image is counted and omitted from the mapping; it never fails the stage.
func (p *Publisher) PublishImages(ctx context.Context, results []scraper.CategoryResult) ImageResult {
	type target struct {
		url      string
		category string
	}

	var targets []target
	seen := make(map[string]bool)
	for _, cat := range results {
		for _, sub := range cat.Subcategories {
			for _, record := range sub.Records {
				if record.ImageURL == "" || seen[record.ImageURL] {
					continue
				}
				seen[record.ImageURL] = true
				targets = append(targets, target{url: record.ImageURL, category: cat.Name})
			}
		}
	}

	var (
		mu     sync.Mutex
		paths  = make(map[string]string, len(targets))
		failed int
	)

	pool := helpers.NewWorkerPool(p.ImageWorkers, 100*time.Millisecond)
	for _, t := range targets {
		t := t
		pool.Submit(func() {
			uri, err := p.publishImage(ctx, t.url, t.category)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				p.log.Warn().Err(err).Str("url", t.url).Msg("Image skipped")
				return
			}
			paths[t.url] = uri
		})
	}
	pool.Wait()

	p.log.Info().Int("uploaded", len(paths)).Int("failed", failed).Msg("Image stage done")
	return ImageResult{Paths: paths, Failed: failed}
}

func (p *Publisher) publishImage(ctx context.Context, url, category string) (string, error) {
	data, contentType, err := p.Fetch(url)
	if err != nil {
		return "", pkgerrors.NewImageTransfer(url, err)
	}

	key := p.imageKey(url, category, contentType)
	if err := p.Store.PutObject(ctx, key, data, contentType, nil); err != nil {
		return "", pkgerrors.NewImageTransfer(url, err)
	}
	return p.Store.URI(key), nil
}

// imageKey derives a deterministic object key from the source URL, so
// re-running a day overwrites rather than duplicates.
func (p *Publisher) imageKey(url, category, contentType string) string {
	sum := sha1.Sum([]byte(url))
	name := hex.EncodeToString(sum[:]) + imageExtension(url, contentType)
	return storage.Join(p.RootPrefix, p.Dataset, p.Partition.Path(), "images", category, name)
}

func imageExtension(url, contentType string) string {
	if idx := strings.LastIndex(url, "."); idx != -1 {
		ext := url[idx:]
		if q := strings.IndexAny(ext, "?#"); q != -1 {
			ext = ext[:q]
		}
		switch strings.ToLower(ext) {
		case ".jpg", ".jpeg", ".png", ".webp", ".gif":
			return strings.ToLower(ext)
		}
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}

// PublishTables writes one workbook per category to a scratch directory,
// uploads each under the partition, and removes the scratch files. One
// category's failure is recorded and the rest still publish.
func (p *Publisher) PublishTables(ctx context.Context, results []scraper.CategoryResult, imagePaths map[string]string) (uploaded []string, failures []error) {
	scratch, err := os.MkdirTemp("", "boshamlan-export-*")
	if err != nil {
		return nil, []error{pkgerrors.NewExportWrite("", "scratch directory", err)}
	}
	defer os.RemoveAll(scratch)

	for _, cat := range results {
		local := filepath.Join(scratch, helpers.SafeFilename(cat.Name, 60)+".xlsx")
		if err := export.WriteCategory(local, cat, imagePaths); err != nil {
			failures = append(failures, err)
			p.log.Error().Err(err).Str("category", cat.Name).Msg("Workbook write failed")
			continue
		}

		key := storage.Join(p.RootPrefix, p.Dataset, p.Partition.Path(), cat.Name+".xlsx")
		uri, err := p.uploadFile(ctx, local, key)
		if err != nil {
			failures = append(failures, pkgerrors.NewExportWrite(cat.Name, "upload "+key, err))
			p.log.Error().Err(err).Str("category", cat.Name).Msg("Workbook upload failed")
			continue
		}
		uploaded = append(uploaded, uri)
	}

	return uploaded, failures
}

// PublishOffices writes one workbook per office and uploads each under the
// offices dataset partition. A failing office is recorded and the rest
// still publish.
func (p *Publisher) PublishOffices(ctx context.Context, offices []office.Office, listings []office.Listing) (uploaded []string, failures []error) {
	scratch, err := os.MkdirTemp("", "boshamlan-offices-*")
	if err != nil {
		return nil, []error{pkgerrors.NewExportWrite("offices", "scratch directory", err)}
	}
	defer os.RemoveAll(scratch)

	byOffice := make(map[string][]office.Listing, len(offices))
	for _, l := range listings {
		byOffice[l.OfficeName] = append(byOffice[l.OfficeName], l)
	}

	for _, o := range offices {
		name := helpers.SafeFilename(o.Name, 60) + ".xlsx"
		local := filepath.Join(scratch, name)
		if err := export.WriteOffice(local, o, byOffice[o.Name]); err != nil {
			failures = append(failures, err)
			p.log.Error().Err(err).Str("office", o.Name).Msg("Office workbook write failed")
			continue
		}

		key := storage.Join(p.RootPrefix, p.OfficesDataset, p.Partition.Path(), name)
		uri, err := p.uploadFile(ctx, local, key)
		if err != nil {
			failures = append(failures, pkgerrors.NewExportWrite("offices", "upload "+key, err))
			p.log.Error().Err(err).Str("office", o.Name).Msg("Office workbook upload failed")
			continue
		}
		uploaded = append(uploaded, uri)
	}

	return uploaded, failures
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (p *Publisher) uploadFile(ctx context.Context, local, key string) (string, error) {
	data, err := os.ReadFile(local)
	if err != nil {
		return "", err
	}
	if err := p.Store.PutObject(ctx, key, data, xlsxContentType, nil); err != nil {
		return "", err
	}
	uri := p.Store.URI(key)
	p.log.Info().Str("uri", uri).Msg("Uploaded artifact")
	return uri, nil
}
