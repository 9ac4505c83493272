package models

import "time"

// RawListing holds unprocessed scraped data directly from the source.
// Every field is optional at this stage: a live page may fail to yield any of
// them, and the normalizer maps each missing field to a typed default. This is
// written to CSV before any cleaning or transformation.
type RawListing struct {
	Title          string
	URL            string
	RawPrice       string
	RawRevenue     string
	RawProfit      string
	Category       string
	Monetization   string
	Description    string
	SellerReason   string
	AgeMonths      int
	TrafficMonthly int
	ListingDate    time.Time
	ScrapedAt      time.Time
	Platform       string
}

// Listing is the canonical, validated record of one business-for-sale
// candidate, ready for storage. URL is the durable external identity: two
// sightings of the same URL are the same real-world listing and merge on
// upsert. ID is regenerated per run and only kept from the first sighting.
type Listing struct {
	ID             string
	Platform       string
	Title          string
	URL            string
	Price          int
	MonthlyRevenue int
	MonthlyProfit  int
	ProfitMultiple float64
	Category       string
	Monetization   string
	Description    string
	AgeMonths      int
	TrafficMonthly int
	SellerReason   string
	ListingDate    time.Time
	ScrapedAt      time.Time
	UpdatedAt      time.Time
}

// Deal is a listing joined with its score, as returned by ranked queries.
// Score is nil for listings that have not been scored yet; those sort last.
type Deal struct {
	Listing Listing
	Score   *Score
}

// Stats holds the aggregate counters reported over the stored dataset.
type Stats struct {
	TotalListings  int
	AvgScore       int
	ExcellentCount int
	GoodCount      int
}
