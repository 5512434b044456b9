package scraper

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"boshamlan-scraper/helpers"
	"boshamlan-scraper/logger"
	pkgerrors "boshamlan-scraper/pkg/errors"
)

// AdmissionTest is the per-card freshness test the controller uses to decide
// when the feed has scrolled past the window of interest.
type AdmissionTest func(Card) bool

// Controller drives incremental loads against a search view and decides when
// enough of the reverse-chronological result set has been revealed.
//
// It stops when all of the last TrailingWindow evaluated cards fail the
// admission test, when a load reveals no new cards, or at the iteration cap.
type Controller struct {
	View           SearchView
	TrailingWindow int
	MaxIterations  int
	Retry          helpers.RetryConfig

	limiter *rate.Limiter
	log     *logger.Logger
}

// NewController creates a pagination controller. delay is the enforced
// minimum interval between load iterations.
func NewController(view SearchView, trailingWindow, maxIterations int, delay time.Duration, retry helpers.RetryConfig, log *logger.Logger) *Controller {
	if log == nil {
		if logger.Default == nil {
			logger.Init()
		}
		log = logger.Default
	}
	return &Controller{
		View:           view,
		TrailingWindow: trailingWindow,
		MaxIterations:  maxIterations,
		Retry:          retry,
		limiter:        rate.NewLimiter(rate.Every(delay), 1),
		log:            log,
	}
}

// Collect reveals results until a stop condition fires and returns every
// card evaluated up to that point. A retry-budget exhaustion mid-scroll
// returns the cards gathered so far together with a pagination error, so
// one stuck subcategory yields a partial result rather than nothing.
func (c *Controller) Collect(ctx context.Context, admit AdmissionTest) ([]Card, error) {
	var (
		cards       []Card
		evaluated   int
		consecutive int
	)

	for iteration := 0; iteration < c.MaxIterations; iteration++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return cards[:evaluated], err
		}

		var current []Card
		err := c.Retry.Do("load results", func() error {
			if iteration > 0 {
				if err := c.View.LoadMore(ctx); err != nil {
					return err
				}
			}
			var readErr error
			current, readErr = c.View.Cards(ctx)
			return readErr
		})
		if err != nil {
			return cards[:evaluated], pkgerrors.NewPagination("", "", "retry budget exhausted", err)
		}

		if iteration > 0 && len(current) <= len(cards) {
			c.log.Debug().Int("cards", len(current)).Msg("No new cards appeared, feed exhausted")
			cards = current
			if evaluated > len(cards) {
				evaluated = len(cards)
			}
			return cards[:len(cards)], nil
		}
		cards = current

		// Evaluate only the newly revealed tail.
		for ; evaluated < len(cards); evaluated++ {
			if admit(cards[evaluated]) {
				consecutive = 0
				continue
			}
			consecutive++
			if consecutive >= c.TrailingWindow {
				evaluated++
				c.log.Debug().
					Int("evaluated", evaluated).
					Int("trailing_window", c.TrailingWindow).
					Msg("Trailing window all rejected, stopping pagination")
				return cards[:evaluated], nil
			}
		}
	}

	c.log.Warn().Int("max_iterations", c.MaxIterations).Msg("Iteration cap reached, stopping pagination")
	return cards[:evaluated], nil
}
