package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-scout/micro-acquisition-scout/models"
)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "scout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testListing(n int) *models.Listing {
	now := time.Now()
	return &models.Listing{
		ID:             fmt.Sprintf("flippa-test-%d", n),
		Platform:       "flippa",
		Title:          fmt.Sprintf("SaaS Business #%d", n),
		URL:            fmt.Sprintf("https://flippa.com/listing/%d", n),
		Price:          15000,
		MonthlyRevenue: 3000,
		MonthlyProfit:  1500,
		ProfitMultiple: 10.0,
		Category:       "SaaS",
		Monetization:   "Subscriptions",
		AgeMonths:      24,
		TrafficMonthly: 12000,
		ListingDate:    now.Add(-72 * time.Hour),
		ScrapedAt:      now,
		UpdatedAt:      now,
	}
}

func testScore(total int, rating string) models.Score {
	return models.Score{
		Total: total,
		Breakdown: models.Breakdown{
			Multiple: total, ProfitMargin: total, PriceValue: total, Age: total, Traffic: total,
		},
		Rating:     rating,
		ComputedAt: time.Now(),
	}
}

func TestUpsertListingIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	l := testListing(1)

	firstID, err := repo.UpsertListing(l)
	require.NoError(t, err)
	assert.Equal(t, l.ID, firstID)

	// Same URL, regenerated id, later update instant
	again := *l
	again.ID = "flippa-test-regenerated"
	again.UpdatedAt = l.UpdatedAt.Add(time.Hour)

	secondID, err := repo.UpsertListing(&again)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID, "merge must preserve the first-sighting id")

	deals, err := repo.TopDeals(10)
	require.NoError(t, err)
	require.Len(t, deals, 1, "repeat upsert must not duplicate the row")

	stored, err := repo.GetListing(firstID)
	require.NoError(t, err)
	assert.WithinDuration(t, l.ScrapedAt, stored.ScrapedAt, time.Second, "scraped_at of first sighting survives")
	assert.WithinDuration(t, again.UpdatedAt, stored.UpdatedAt, time.Second, "updated_at advances")
}

func TestUpsertListingMergesFinancials(t *testing.T) {
	repo := newTestRepo(t)
	l := testListing(2)

	id, err := repo.UpsertListing(l)
	require.NoError(t, err)

	updated := *l
	updated.ID = "flippa-test-new-run"
	updated.Title = "Renamed By Seller"
	updated.Price = 18000
	updated.MonthlyProfit = 2000
	updated.ProfitMultiple = 9.0

	_, err = repo.UpsertListing(&updated)
	require.NoError(t, err)

	stored, err := repo.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, 18000, stored.Price)
	assert.Equal(t, 2000, stored.MonthlyProfit)
	assert.Equal(t, 9.0, stored.ProfitMultiple)
	assert.Equal(t, l.Title, stored.Title, "only financial fields merge")
}

func TestSaveScoreReplacesInPlace(t *testing.T) {
	repo := newTestRepo(t)
	id, err := repo.UpsertListing(testListing(3))
	require.NoError(t, err)

	require.NoError(t, repo.SaveScore(id, testScore(60, models.RatingFair)))
	require.NoError(t, repo.SaveScore(id, testScore(88, models.RatingExcellent)))

	deals, err := repo.TopDeals(10)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	require.NotNil(t, deals[0].Score)
	assert.Equal(t, 88, deals[0].Score.Total)
	assert.Equal(t, models.RatingExcellent, deals[0].Score.Rating)
}

func TestTopDealsOrdersAndLimits(t *testing.T) {
	repo := newTestRepo(t)
	totals := []int{72, 91, 55, 83, 47}

	for i, total := range totals {
		id, err := repo.UpsertListing(testListing(10 + i))
		require.NoError(t, err)
		require.NoError(t, repo.SaveScore(id, testScore(total, models.RatingFair)))
	}

	deals, err := repo.TopDeals(3)
	require.NoError(t, err)
	require.Len(t, deals, 3)
	assert.Equal(t, 91, deals[0].Score.Total)
	assert.Equal(t, 83, deals[1].Score.Total)
	assert.Equal(t, 72, deals[2].Score.Total)
}

func TestTopDealsSortsUnscoredLast(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpsertListing(testListing(20))
	require.NoError(t, err)

	id, err := repo.UpsertListing(testListing(21))
	require.NoError(t, err)
	require.NoError(t, repo.SaveScore(id, testScore(42, models.RatingBelowAverage)))

	deals, err := repo.TopDeals(10)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.NotNil(t, deals[0].Score)
	assert.Nil(t, deals[1].Score, "unscored listings sort last")
}

func TestStatsOnEmptyRepository(t *testing.T) {
	repo := newTestRepo(t)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, stats)
}

func TestStatsAggregates(t *testing.T) {
	repo := newTestRepo(t)

	seed := []struct {
		total  int
		rating string
	}{
		{90, models.RatingExcellent},
		{72, models.RatingGood},
		{50, models.RatingBelowAverage},
	}
	for i, s := range seed {
		id, err := repo.UpsertListing(testListing(30 + i))
		require.NoError(t, err)
		require.NoError(t, repo.SaveScore(id, testScore(s.total, s.rating)))
	}

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalListings)
	assert.Equal(t, 71, stats.AvgScore) // round((90+72+50)/3)
	assert.Equal(t, 1, stats.ExcellentCount)
	assert.Equal(t, 1, stats.GoodCount)
}

func TestOperationsFailAfterClose(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "double close must be safe")

	_, err := repo.UpsertListing(testListing(40))
	assert.ErrorIs(t, err, ErrClosed)

	var pErr *PersistenceError
	assert.ErrorAs(t, err, &pErr)

	assert.ErrorIs(t, repo.SaveScore("x", testScore(1, models.RatingPoor)), ErrClosed)

	_, err = repo.TopDeals(5)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = repo.Stats()
	assert.ErrorIs(t, err, ErrClosed)

	_, err = repo.GetListing("x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGetListingRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	l := testListing(50)

	id, err := repo.UpsertListing(l)
	require.NoError(t, err)

	stored, err := repo.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, l.URL, stored.URL)
	assert.Equal(t, l.Price, stored.Price)
	assert.Equal(t, l.Category, stored.Category)
	assert.WithinDuration(t, l.ListingDate, stored.ListingDate, time.Second)

	_, err = repo.GetListing("no-such-id")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrClosed))
}
