package synthetic

import (
	"context"
	"regexp"
	"testing"

	"github.com/paul-scout/micro-acquisition-scout/scraper"
	"github.com/paul-scout/micro-acquisition-scout/utils"
)

var moneyFormat = regexp.MustCompile(`^\$\d{1,3}(,\d{3})*$`)

func testFilters() scraper.Filters {
	return scraper.Filters{PriceMin: 4000, PriceMax: 50000, Limit: 5}
}

func TestAcquireHonorsLimitAndRanges(t *testing.T) {
	g := NewSeeded(utils.NewLogger(false), 1)

	listings, err := g.Acquire(context.Background(), testFilters())
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 5 {
		t.Fatalf("got %d listings, want 5", len(listings))
	}

	for i, l := range listings {
		if l.Title == "" || l.URL == "" {
			t.Errorf("listing %d missing title or url", i)
		}
		if !moneyFormat.MatchString(l.RawPrice) {
			t.Errorf("listing %d RawPrice %q not currency formatted", i, l.RawPrice)
		}
		price := parseAmount(t, l.RawPrice)
		if price < 4000 || price > 50000 {
			t.Errorf("listing %d price %d outside [4000,50000]", i, price)
		}
		revenue := parseAmount(t, l.RawRevenue)
		if revenue > price {
			t.Errorf("listing %d revenue %d exceeds price %d", i, revenue, price)
		}
		profit := parseAmount(t, l.RawProfit)
		if profit > revenue {
			t.Errorf("listing %d profit %d exceeds revenue %d", i, profit, revenue)
		}
		if l.AgeMonths < 6 || l.AgeMonths > 66 {
			t.Errorf("listing %d age %d outside [6,66]", i, l.AgeMonths)
		}
		if l.TrafficMonthly < 5000 || l.TrafficMonthly > 55000 {
			t.Errorf("listing %d traffic %d outside [5000,55000]", i, l.TrafficMonthly)
		}
		if l.Platform != "flippa" {
			t.Errorf("listing %d platform = %q", i, l.Platform)
		}
		if l.ScrapedAt.IsZero() {
			t.Errorf("listing %d missing scrapedAt", i)
		}
	}
}

func TestAcquireIsReproducibleWithSeed(t *testing.T) {
	a, err := NewSeeded(utils.NewLogger(false), 42).Acquire(context.Background(), testFilters())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSeeded(utils.NewLogger(false), 42).Acquire(context.Background(), testFilters())
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if a[i].URL != b[i].URL || a[i].RawPrice != b[i].RawPrice {
			t.Fatalf("listing %d differs across identically seeded generators", i)
		}
	}
}

func TestAcquireRejectsInvalidFilters(t *testing.T) {
	g := NewSeeded(utils.NewLogger(false), 1)

	_, err := g.Acquire(context.Background(), scraper.Filters{PriceMin: 100, PriceMax: 50, Limit: 5})
	if err == nil {
		t.Fatal("expected error for inverted price bounds")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{45250, "$45,250"},
		{1234567, "$1,234,567"},
	}

	for _, tt := range tests {
		if got := formatMoney(tt.amount); got != tt.want {
			t.Errorf("formatMoney(%d) = %q; want %q", tt.amount, got, tt.want)
		}
	}
}

func parseAmount(t *testing.T, raw string) int {
	t.Helper()
	n := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}
