package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"boshamlan-scraper/internal/scraper"
)

// Options configures the headless browser session.
type Options struct {
	ChromePath string
	Headless   bool
}

// Session is a chromedp-backed scraper.SearchView. One session is scoped to
// one subcategory scrape and must be closed before the next one starts.
type Session struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
}

var _ scraper.SearchView = (*Session)(nil)

// NewSession launches a browser tab ready for navigation.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	chromeBin := opts.ChromePath
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		execOpts = append(execOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, execOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Session{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
	}, nil
}

// Navigate opens the search URL and waits for the first cards to render.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, 60*time.Second)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(3*time.Second),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Cards reads the currently visible listing cards. Each card carries its
// data-post-id and outer HTML; older markup without the attribute falls
// back to the numeric tail of the card's detail link.
func (s *Session) Cards(ctx context.Context) ([]scraper.Card, error) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, 30*time.Second)
	defer cancel()

	type rawCard struct {
		ID   string `json:"id"`
		HTML string `json:"html"`
	}
	var raw []rawCard

	err := chromedp.Run(runCtx,
		chromedp.Evaluate(`
			(function() {
				var out = [];
				var nodes = document.querySelectorAll('article[data-post-id]');
				if (nodes.length === 0) {
					nodes = document.querySelectorAll('.relative.w-full.rounded-lg.card-shadow');
				}
				for (var i = 0; i < nodes.length; i++) {
					var node = nodes[i];
					var id = node.getAttribute('data-post-id') || '';
					if (!id) {
						var link = node.querySelector('a[href]');
						if (link) {
							var m = link.getAttribute('href').match(/\/(\d+)(?:[?#].*)?$/);
							if (m) id = m[1];
						}
					}
					out.push({ id: id, html: node.outerHTML });
				}
				return out;
			})()
		`, &raw),
	)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}

	cards := make([]scraper.Card, 0, len(raw))
	for _, r := range raw {
		cards = append(cards, scraper.Card{SourceID: r.ID, HTML: r.HTML})
	}
	return cards, nil
}

// LoadMore reveals more results: the show-more button when present and
// enabled, otherwise a scroll to the bottom of the feed.
func (s *Session) LoadMore(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, 30*time.Second)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Evaluate(`
			(function() {
				var button = document.querySelector('button.bg-primary.w-full.cursor-pointer');
				if (button && !button.disabled) {
					button.click();
					return 'clicked';
				}
				window.scrollTo(0, document.body.scrollHeight);
				return 'scrolled';
			})()
		`, nil),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("load more: %w", err)
	}
	return nil
}

// Close releases the browser tab and its allocator.
func (s *Session) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
