package uploader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"boshamlan-scraper/internal/office"
	"boshamlan-scraper/internal/scraper"
	pkgerrors "boshamlan-scraper/pkg/errors"
	"boshamlan-scraper/services/storage"
)

// memStore records puts in memory.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	headErr error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *memStore) PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = body
	s.types[key] = contentType
	return nil
}

func (s *memStore) HeadBucket(ctx context.Context) error { return s.headErr }

func (s *memStore) URI(key string) string { return "s3://test-bucket/" + key }

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

func testPublisher(store storage.ObjectStore) *Publisher {
	p := NewPublisher(store, "boshamlan-data", "properties", "offices",
		storage.PartitionKey{Year: 2026, Month: 2, Day: 22}, 2)
	p.Fetch = func(url string) ([]byte, string, error) {
		return []byte("image-bytes-" + url), "image/jpeg", nil
	}
	return p
}

func record(id, imageURL string) *scraper.ListingRecord {
	return &scraper.ListingRecord{SourceID: id, Title: "عنوان " + id, ImageURL: imageURL}
}

func results(records ...*scraper.ListingRecord) []scraper.CategoryResult {
	return []scraper.CategoryResult{{
		Name: "rent",
		Subcategories: []scraper.SubcategoryResult{
			{Name: "شقة", Records: records},
		},
	}}
}

func TestCheckStorePrecondition(t *testing.T) {
	store := newMemStore()
	store.headErr = pkgerrors.NewStorePrecondition("test-bucket", errors.New("403"))
	p := testPublisher(store)

	err := p.CheckStore(context.Background())
	assert.Error(t, err)

	var scrapeErr *pkgerrors.ScrapeError
	assert.ErrorAs(t, err, &scrapeErr)
	assert.True(t, scrapeErr.IsFatal())
}

func TestPublishImagesOncePerDistinctURL(t *testing.T) {
	store := newMemStore()
	p := testPublisher(store)

	shared := "https://cdn.example.com/a.jpg"
	res := p.PublishImages(context.Background(), results(
		record("1", shared),
		record("2", shared),
		record("3", "https://cdn.example.com/b.png"),
		record("4", ""),
	))

	assert.Equal(t, 0, res.Failed)
	assert.Len(t, res.Paths, 2)
	assert.Len(t, store.keys(), 2)

	// Records with no image stay out of the mapping.
	_, ok := res.Paths[""]
	assert.False(t, ok)

	for _, key := range store.keys() {
		assert.True(t, strings.HasPrefix(key,
			"boshamlan-data/properties/year=2026/month=02/day=22/images/rent/"), key)
	}
}

func TestPublishImagesDeterministicKeys(t *testing.T) {
	store := newMemStore()
	p := testPublisher(store)
	url := "https://cdn.example.com/a.jpg"

	first := p.PublishImages(context.Background(), results(record("1", url)))
	second := p.PublishImages(context.Background(), results(record("1", url)))

	// Re-running a day maps the same URL to the same object.
	assert.Equal(t, first.Paths[url], second.Paths[url])
	assert.Len(t, store.keys(), 1)
}

func TestPublishImagesFailureOmitsMapping(t *testing.T) {
	store := newMemStore()
	p := testPublisher(store)
	p.Fetch = func(url string) ([]byte, string, error) {
		if strings.Contains(url, "broken") {
			return nil, "", errors.New("status 404")
		}
		return []byte("ok"), "image/jpeg", nil
	}

	res := p.PublishImages(context.Background(), results(
		record("1", "https://cdn.example.com/broken.jpg"),
		record("2", "https://cdn.example.com/fine.jpg"),
	))

	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Paths, 1)
	_, ok := res.Paths["https://cdn.example.com/broken.jpg"]
	assert.False(t, ok)
}

func TestPublishImagesExtensionFromContentType(t *testing.T) {
	store := newMemStore()
	p := testPublisher(store)
	p.Fetch = func(url string) ([]byte, string, error) {
		return []byte("ok"), "image/webp", nil
	}

	res := p.PublishImages(context.Background(), results(record("1", "https://cdn.example.com/image")))
	assert.Len(t, res.Paths, 1)
	for _, uri := range res.Paths {
		assert.True(t, strings.HasSuffix(uri, ".webp"), uri)
	}
}

func TestPublishTablesUploadsPerCategory(t *testing.T) {
	store := newMemStore()
	p := testPublisher(store)

	uploaded, failures := p.PublishTables(context.Background(),
		results(record("1", "")), map[string]string{})

	assert.Empty(t, failures)
	assert.Len(t, uploaded, 1)
	assert.Equal(t, "s3://test-bucket/boshamlan-data/properties/year=2026/month=02/day=22/rent.xlsx", uploaded[0])

	key := "boshamlan-data/properties/year=2026/month=02/day=22/rent.xlsx"
	assert.NotEmpty(t, store.objects[key])
	assert.Equal(t, xlsxContentType, store.types[key])
}

func TestPublishTablesIsolatesUploadFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("slow down")
	p := testPublisher(store)

	uploaded, failures := p.PublishTables(context.Background(),
		results(record("1", "")), map[string]string{})

	assert.Empty(t, uploaded)
	assert.Len(t, failures, 1)
}

func TestPublishOfficesOneWorkbookPerOffice(t *testing.T) {
	store := newMemStore()
	p := testPublisher(store)

	uploaded, failures := p.PublishOffices(context.Background(),
		[]office.Office{
			{Name: "مكتب الأول", Phone: "12345678"},
			{Name: "مكتب الثاني", Phone: "87654321"},
		},
		[]office.Listing{{OfficeName: "مكتب الأول", Title: "شقة"}})

	assert.Empty(t, failures)
	assert.Len(t, uploaded, 2)
	for _, uri := range uploaded {
		assert.Contains(t, uri, "s3://test-bucket/boshamlan-data/offices/year=2026/month=02/day=22/")
		assert.Contains(t, uri, ".xlsx")
	}
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imageExtension("https://x/a.jpg", ""))
	assert.Equal(t, ".png", imageExtension("https://x/a.png?w=200", ""))
	assert.Equal(t, ".webp", imageExtension("https://x/a", "image/webp"))
	assert.Equal(t, ".jpg", imageExtension("https://x/a", "application/octet-stream"))
	assert.Equal(t, ".jpg", imageExtension("https://x/a.tiff", "image/jpeg"))
}
