package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"boshamlan-scraper/services/api"
)

const sampleCardHTML = `
<article data-post-id="12345">
  <img alt="Post" src="https://cdn.example.com/posts/a.jpg"/>
  <h3>شقة للإيجار في السالمية</h3>
  <p class="text-sm line-clamp-2">شقة غرفتين وصالة</p>
  <div class="rounded font-bold text-primary-dark">350 د.ك</div>
  <time><span>منذ 3 ساعات</span></time>
</article>`

type fakeAPI struct {
	listing *api.Listing
	err     error
	calls   int
}

func (f *fakeAPI) Lookup(ctx context.Context, sourceID string) (*api.Listing, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

func TestExtractMarkupOnly(t *testing.T) {
	extractor := NewExtractor(DefaultSelectors(), nil, "https://www.boshamlan.com")

	record, err := extractor.Extract(context.Background(), Card{SourceID: "12345", HTML: sampleCardHTML})
	assert.NoError(t, err)
	assert.Equal(t, "12345", record.SourceID)
	assert.Equal(t, "شقة للإيجار في السالمية", record.Title)
	assert.Equal(t, "شقة غرفتين وصالة", record.Description)
	assert.Equal(t, "350 د.ك", record.Price)
	assert.Equal(t, "منذ 3 ساعات", record.RelativeDate)
	assert.Equal(t, "https://cdn.example.com/posts/a.jpg", record.ImageURL)
	assert.False(t, record.IsFeatured)
}

func TestExtractOverlaysAPIFields(t *testing.T) {
	apiClient := &fakeAPI{listing: &api.Listing{
		Slug:          "apartment-for-rent-salmiya",
		TitleAr:       "شقة فاخرة للإيجار",
		DescriptionAr: "وصف كامل من الخادم",
		Price:         json.Number("400"),
		Views:         1234,
		Contact:       "99887766",
		CreatedAt:     "2026-02-22T07:00:00+03:00",
		Images:        []api.Image{{Path: "https://cdn.example.com/full/b.jpg"}},
	}}
	extractor := NewExtractor(DefaultSelectors(), apiClient, "https://www.boshamlan.com")

	record, err := extractor.Extract(context.Background(), Card{SourceID: "12345", HTML: sampleCardHTML})
	assert.NoError(t, err)

	// API fields win over the markup versions.
	assert.Equal(t, "شقة فاخرة للإيجار", record.Title)
	assert.Equal(t, "وصف كامل من الخادم", record.Description)
	assert.Equal(t, "400", record.Price)
	assert.Equal(t, "99887766", record.Contact)
	assert.Equal(t, 1234, record.ViewCount)
	assert.Equal(t, "https://cdn.example.com/full/b.jpg", record.ImageURL)
	assert.Equal(t, "https://www.boshamlan.com/apartment-for-rent-salmiya/12345", record.DetailURL)
	assert.Equal(t, "2026-02-22T07:00:00+03:00", record.AbsoluteDate())

	// The relative text from markup is kept alongside.
	assert.Equal(t, "منذ 3 ساعات", record.RelativeDate)
}

func TestExtractKeepsMarkupOnAPIFailure(t *testing.T) {
	apiClient := &fakeAPI{err: errors.New("status 500")}
	extractor := NewExtractor(DefaultSelectors(), apiClient, "https://www.boshamlan.com")

	record, err := extractor.Extract(context.Background(), Card{SourceID: "12345", HTML: sampleCardHTML})
	assert.NoError(t, err)
	assert.Equal(t, "شقة للإيجار في السالمية", record.Title)
	assert.Equal(t, "350 د.ك", record.Price)
	assert.Empty(t, record.AbsoluteDate())
	assert.Equal(t, 1, apiClient.calls)
}

func TestExtractEmptyAPIFieldsDoNotClobberMarkup(t *testing.T) {
	apiClient := &fakeAPI{listing: &api.Listing{Views: 10}}
	extractor := NewExtractor(DefaultSelectors(), apiClient, "https://www.boshamlan.com")

	record, err := extractor.Extract(context.Background(), Card{SourceID: "12345", HTML: sampleCardHTML})
	assert.NoError(t, err)
	assert.Equal(t, "شقة للإيجار في السالمية", record.Title)
	assert.Equal(t, "350 د.ك", record.Price)
	assert.Equal(t, 10, record.ViewCount)
}

func TestExtractRejectsCardWithoutID(t *testing.T) {
	extractor := NewExtractor(DefaultSelectors(), nil, "https://www.boshamlan.com")

	_, err := extractor.Extract(context.Background(), Card{SourceID: "", HTML: sampleCardHTML})
	assert.Error(t, err)
}

func TestExtractRejectsUnrecognizableMarkup(t *testing.T) {
	extractor := NewExtractor(DefaultSelectors(), nil, "https://www.boshamlan.com")

	_, err := extractor.Extract(context.Background(), Card{SourceID: "1", HTML: "<div><span>nothing here</span></div>"})
	assert.Error(t, err)
}

func TestExtractSelectorFallback(t *testing.T) {
	// Older markup generation without the time element.
	html := `
<article data-post-id="9">
  <h3>بيت للبيع</h3>
  <div class="rounded text-xs flex items-center gap-1">منذ يومين</div>
</article>`
	extractor := NewExtractor(DefaultSelectors(), nil, "https://www.boshamlan.com")

	record, err := extractor.Extract(context.Background(), Card{SourceID: "9", HTML: html})
	assert.NoError(t, err)
	assert.Equal(t, "منذ يومين", record.RelativeDate)
}

func TestRelativeDateOf(t *testing.T) {
	extractor := NewExtractor(DefaultSelectors(), nil, "https://www.boshamlan.com")

	assert.Equal(t, "منذ 3 ساعات", extractor.RelativeDateOf(Card{SourceID: "1", HTML: sampleCardHTML}))
	assert.Empty(t, extractor.RelativeDateOf(Card{SourceID: "2", HTML: "<div></div>"}))
}

func TestParseViews(t *testing.T) {
	assert.Equal(t, 1234, ParseViews("1,234"))
	assert.Equal(t, 42, ParseViews(" 42 "))
	assert.Equal(t, 0, ParseViews("n/a"))
}
