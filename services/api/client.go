package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"boshamlan-scraper/logger"
	pkgerrors "boshamlan-scraper/pkg/errors"
	"boshamlan-scraper/services/cache"
)

// Listing is the structured record the backing API returns for one post.
type Listing struct {
	Slug          string      `json:"slug"`
	TitleAr       string      `json:"title_ar"`
	DescriptionAr string      `json:"description_ar"`
	Price         json.Number `json:"price"`
	Views         int         `json:"views"`
	Contact       string      `json:"contact"`
	CreatedAt     string      `json:"created_at"`
	Images        []Image     `json:"images"`
}

// Image is one image attachment on an API listing.
type Image struct {
	Path string `json:"path"`
}

type envelope struct {
	Data *Listing `json:"data"`
}

// Client looks up listings on the backing JSON API by source identifier.
// Responses are cached so the same identifier appearing under two
// subcategories costs one request.
type Client struct {
	http    *resty.Client
	baseURL string
	cache   cache.CacheService
	ttl     time.Duration
	log     *logger.Logger
}

// NewClient creates a listings API client. cacheSvc may be nil to disable caching.
func NewClient(baseURL string, cacheSvc cache.CacheService, ttl time.Duration) *Client {
	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		cache:   cacheSvc,
		ttl:     ttl,
		log:     logger.ForAPI(),
	}
}

// Lookup fetches the API record for one source identifier.
func (c *Client) Lookup(ctx context.Context, sourceID string) (*Listing, error) {
	cacheKey := "api:listing:" + sourceID

	if c.cache != nil {
		if cached, err := c.cache.Get(cacheKey); err == nil {
			var listing Listing
			if err := json.Unmarshal(cached, &listing); err == nil {
				c.log.Debug().Str("source_id", sourceID).Msg("API cache hit")
				return &listing, nil
			}
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(fmt.Sprintf("%s/%s", c.baseURL, sourceID))
	if err != nil {
		return nil, pkgerrors.NewAPILookup("", "", "request failed", err).WithSourceID(sourceID)
	}
	if resp.StatusCode() != 200 {
		return nil, pkgerrors.NewAPILookup("", "",
			fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil).WithSourceID(sourceID)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, pkgerrors.NewAPILookup("", "", "undecodable response", err).WithSourceID(sourceID)
	}
	if env.Data == nil {
		return nil, pkgerrors.NewAPILookup("", "", "empty data", nil).WithSourceID(sourceID)
	}

	if c.cache != nil {
		if raw, err := json.Marshal(env.Data); err == nil {
			if err := c.cache.Set(cacheKey, raw, c.ttl); err != nil {
				c.log.Debug().Err(err).Str("source_id", sourceID).Msg("API cache set failed")
			}
		}
	}

	return env.Data, nil
}
