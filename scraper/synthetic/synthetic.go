// Package synthetic generates constrained random listings. It is the default
// acquisition mode and the fallback when live scraping fails, so the rest of
// the pipeline always has data to exercise.
package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/paul-scout/micro-acquisition-scout/models"
	"github.com/paul-scout/micro-acquisition-scout/scraper"
	"github.com/paul-scout/micro-acquisition-scout/utils"
)

const platform = "flippa"

var (
	categories    = []string{"SaaS", "Content Site", "E-Commerce", "Marketplace", "Newsletter"}
	monetizations = []string{"Subscriptions", "Ads", "Affiliate", "Direct Sales", "Sponsorships"}
	sellerReasons = []string{"Other commitments", "Moving abroad", "Focus on other projects"}
)

// Generator emits synthetic raw listings. Money fields are formatted as
// currency text so synthetic batches run through the same normalization path
// as scraped ones.
type Generator struct {
	logger *utils.Logger
	rng    *rand.Rand
}

// New creates a Generator seeded from the clock.
func New(logger *utils.Logger) *Generator {
	return NewSeeded(logger, time.Now().UnixNano())
}

// NewSeeded creates a Generator with a fixed seed for reproducible batches.
func NewSeeded(logger *utils.Logger, seed int64) *Generator {
	return &Generator{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Name identifies the strategy in logs and run summaries.
func (g *Generator) Name() string { return "synthetic" }

// Acquire generates exactly filters.Limit raw listings with prices uniform in
// [PriceMin, PriceMax], revenue at 10-40% of price and profit at 30-80% of
// revenue.
func (g *Generator) Acquire(ctx context.Context, filters scraper.Filters) ([]*models.RawListing, error) {
	if err := filters.Validate(); err != nil {
		return nil, &scraper.AcquisitionError{Source: g.Name(), Kind: scraper.KindEmpty, Err: err}
	}

	now := time.Now()
	listings := make([]*models.RawListing, 0, filters.Limit)

	for i := 0; i < filters.Limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &scraper.AcquisitionError{Source: g.Name(), Kind: scraper.KindTimeout, Err: err}
		}

		category := categories[i%len(categories)]
		price := filters.PriceMin + g.intn(filters.PriceMax-filters.PriceMin+1)
		revenue := int(float64(price) * (0.10 + g.rng.Float64()*0.30))
		profit := int(float64(revenue) * (0.30 + g.rng.Float64()*0.50))

		listings = append(listings, &models.RawListing{
			Title:          fmt.Sprintf("%s Business #%d", category, i+1),
			URL:            fmt.Sprintf("https://flippa.com/listing/%d", g.rng.Intn(900000)+100000),
			RawPrice:       formatMoney(price),
			RawRevenue:     formatMoney(revenue),
			RawProfit:      formatMoney(profit),
			Category:       category,
			Monetization:   monetizations[i%len(monetizations)],
			Description: fmt.Sprintf("Established %s with consistent revenue. Owner selling due to other commitments.",
				category),
			SellerReason:   sellerReasons[i%len(sellerReasons)],
			AgeMonths:      6 + g.rng.Intn(61),
			TrafficMonthly: 5000 + g.rng.Intn(50001),
			ListingDate:    now.Add(-time.Duration(g.rng.Intn(7*24)) * time.Hour),
			ScrapedAt:      now,
			Platform:       platform,
		})
	}

	g.logger.Info("[synthetic] Generated %d listings ($%d-$%d)",
		len(listings), filters.PriceMin, filters.PriceMax)
	return listings, nil
}

// intn tolerates a zero-width price range.
func (g *Generator) intn(n int) int {
	if n <= 1 {
		return 0
	}
	return g.rng.Intn(n)
}

// formatMoney renders an amount the way marketplace pages do: "$12,345".
func formatMoney(amount int) string {
	s := strconv.Itoa(amount)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return "$" + s
}
