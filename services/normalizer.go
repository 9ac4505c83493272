package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/paul-scout/micro-acquisition-scout/models"
	"github.com/paul-scout/micro-acquisition-scout/utils"
)

// moneyRegexp captures the first numeric amount in currency-like text.
var moneyRegexp = regexp.MustCompile(`\d[\d,]*`)

// categoryRule maps a title keyword to a category. Rules are checked in order
// and the first match wins.
type categoryRule struct {
	keywords []string
	category string
}

var categoryRules = []categoryRule{
	{[]string{"saas", "software"}, "SaaS"},
	{[]string{"ecommerce", "e-commerce", "store"}, "E-Commerce"},
	{[]string{"blog", "content"}, "Content Site"},
	{[]string{"marketplace"}, "Marketplace"},
	{[]string{"newsletter"}, "Newsletter"},
}

const defaultCategory = "Website"

// NormalizationError reports a raw record that cannot be turned into a
// listing. The record is dropped; the batch continues.
type NormalizationError struct {
	Title string
	URL   string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize record (title=%q url=%q): %v", e.Title, e.URL, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Normalizer transforms raw scraped records into canonical listings.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeAll processes a raw batch. Records that fail to normalize or
// duplicate an earlier URL are dropped and counted; they never abort the
// batch.
func (n *Normalizer) NormalizeAll(raw []*models.RawListing) ([]*models.Listing, int) {
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(raw))
	dropped := 0

	for _, r := range raw {
		listing, err := n.Normalize(r)
		if err != nil {
			n.logger.Warn("[normalizer] Dropping record: %v", err)
			dropped++
			continue
		}
		if _, dup := seen[listing.URL]; dup {
			n.logger.Debug("[normalizer] Duplicate URL skipped: %s", listing.URL)
			dropped++
			continue
		}
		seen[listing.URL] = struct{}{}
		result = append(result, listing)
	}

	n.logger.Info("[normalizer] Normalized %d → %d listings (dropped %d)",
		len(raw), len(result), dropped)
	return result, dropped
}

// Normalize maps one raw record to a canonical listing. A record lacking both
// title and URL is rejected; every other missing field gets a typed default.
// Malformed money text degrades to 0, it is never fatal.
func (n *Normalizer) Normalize(r *models.RawListing) (*models.Listing, error) {
	title := normaliseText(r.Title)
	url := strings.TrimSpace(r.URL)
	if title == "" && url == "" {
		return nil, &NormalizationError{Title: r.Title, URL: r.URL,
			Err: fmt.Errorf("record has neither title nor url")}
	}

	now := time.Now()
	scrapedAt := r.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = now
	}

	platform := strings.ToLower(strings.TrimSpace(r.Platform))
	if platform == "" {
		platform = "flippa"
	}

	price := parseMoney(r.RawPrice)
	revenue := parseMoney(r.RawRevenue)
	profit := parseMoney(r.RawProfit)

	category := normaliseText(r.Category)
	if category == "" {
		category = guessCategory(title)
	}

	return &models.Listing{
		ID:             platform + "-" + uuid.NewString(),
		Platform:       platform,
		Title:          title,
		URL:            url,
		Price:          price,
		MonthlyRevenue: revenue,
		MonthlyProfit:  profit,
		ProfitMultiple: profitMultiple(price, profit),
		Category:       category,
		Monetization:   normaliseText(r.Monetization),
		Description:    normaliseText(r.Description),
		AgeMonths:      clampNonNegative(r.AgeMonths),
		TrafficMonthly: clampNonNegative(r.TrafficMonthly),
		SellerReason:   normaliseText(r.SellerReason),
		ListingDate:    r.ListingDate,
		ScrapedAt:      scrapedAt,
		UpdatedAt:      now,
	}, nil
}

// parseMoney extracts an integer amount from currency-like text. Unparseable
// or missing amounts become 0.
func parseMoney(raw string) int {
	match := moneyRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	amount, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil || amount < 0 {
		return 0
	}
	return amount
}

// profitMultiple returns price/profit rounded to two decimals, or the 0
// sentinel when the ratio is undefined.
func profitMultiple(price, profit int) float64 {
	if profit <= 0 {
		return 0
	}
	return math.Round(float64(price)/float64(profit)*100) / 100
}

// guessCategory infers a category from title keywords.
func guessCategory(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return defaultCategory
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
