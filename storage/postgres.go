package storage

import (
	"database/sql"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"

	"github.com/paul-scout/micro-acquisition-scout/models"
)

// Postgres persists listings and scores in PostgreSQL, for deployments that
// already run one. Same logical schema and upsert semantics as the SQLite
// store.
type Postgres struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewPostgres opens a connection, waits for the server to come up, and runs
// schema migrations.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	r := &Postgres{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return r, nil
}

func (r *Postgres) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id              TEXT PRIMARY KEY,
			platform        TEXT NOT NULL,
			title           TEXT NOT NULL DEFAULT '',
			url             TEXT NOT NULL UNIQUE,
			price           BIGINT NOT NULL DEFAULT 0,
			monthly_revenue BIGINT NOT NULL DEFAULT 0,
			monthly_profit  BIGINT NOT NULL DEFAULT 0,
			profit_multiple DOUBLE PRECISION NOT NULL DEFAULT 0,
			category        TEXT NOT NULL DEFAULT '',
			monetization    TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			age_months      INTEGER NOT NULL DEFAULT 0,
			traffic_monthly INTEGER NOT NULL DEFAULT 0,
			seller_reason   TEXT NOT NULL DEFAULT '',
			listing_date    TIMESTAMPTZ,
			scraped_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS scores (
			listing_id          TEXT PRIMARY KEY REFERENCES listings(id) ON DELETE CASCADE,
			total_score         INTEGER NOT NULL,
			rating              TEXT NOT NULL,
			score_multiple      INTEGER NOT NULL,
			score_profit_margin INTEGER NOT NULL,
			score_price_value   INTEGER NOT NULL,
			score_age           INTEGER NOT NULL,
			score_traffic       INTEGER NOT NULL,
			computed_at         TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_scores_total   ON scores(total_score);
	`)
	return err
}

func (r *Postgres) guard(op string) error {
	if r.closed.Load() {
		return &PersistenceError{Op: op, Err: ErrClosed}
	}
	return nil
}

// UpsertListing inserts the listing or merges it into the existing row for
// the same URL. The stored id is returned.
func (r *Postgres) UpsertListing(l *models.Listing) (string, error) {
	if err := r.guard("upsert listing"); err != nil {
		return "", err
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO listings (
			id, platform, title, url, price, monthly_revenue, monthly_profit,
			profit_multiple, category, monetization, description, age_months,
			traffic_monthly, seller_reason, listing_date, scraped_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (url) DO UPDATE SET
			price           = excluded.price,
			monthly_revenue = excluded.monthly_revenue,
			monthly_profit  = excluded.monthly_profit,
			profit_multiple = excluded.profit_multiple,
			updated_at      = excluded.updated_at
		RETURNING id`,
		l.ID, l.Platform, l.Title, l.URL, l.Price, l.MonthlyRevenue, l.MonthlyProfit,
		l.ProfitMultiple, l.Category, l.Monetization, l.Description, l.AgeMonths,
		l.TrafficMonthly, l.SellerReason, nullTime(l.ListingDate), l.ScrapedAt, l.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", &PersistenceError{Op: "upsert listing " + l.URL, Err: err}
	}
	return id, nil
}

// SaveScore inserts or replaces the single score row for a listing.
func (r *Postgres) SaveScore(listingID string, score models.Score) error {
	if err := r.guard("save score"); err != nil {
		return err
	}

	_, err := r.db.Exec(`
		INSERT INTO scores (
			listing_id, total_score, rating, score_multiple, score_profit_margin,
			score_price_value, score_age, score_traffic, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (listing_id) DO UPDATE SET
			total_score         = excluded.total_score,
			rating              = excluded.rating,
			score_multiple      = excluded.score_multiple,
			score_profit_margin = excluded.score_profit_margin,
			score_price_value   = excluded.score_price_value,
			score_age           = excluded.score_age,
			score_traffic       = excluded.score_traffic,
			computed_at         = excluded.computed_at`,
		listingID, score.Total, score.Rating, score.Breakdown.Multiple,
		score.Breakdown.ProfitMargin, score.Breakdown.PriceValue,
		score.Breakdown.Age, score.Breakdown.Traffic, score.ComputedAt,
	)
	if err != nil {
		return &PersistenceError{Op: "save score for " + listingID, Err: err}
	}
	return nil
}

// GetListing retrieves one listing by its stored id.
func (r *Postgres) GetListing(id string) (*models.Listing, error) {
	if err := r.guard("get listing"); err != nil {
		return nil, err
	}

	l, err := scanListing(r.db.QueryRow(
		`SELECT `+listingColumns+` FROM listings l WHERE l.id = $1`, id))
	if err != nil {
		return nil, &PersistenceError{Op: "get listing " + id, Err: err}
	}
	return l, nil
}

// TopDeals returns listings joined with their scores, best first. Listings
// without a score sort last.
func (r *Postgres) TopDeals(limit int) ([]models.Deal, error) {
	if err := r.guard("top deals"); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT `+listingColumns+`, `+scoreColumns+`
		FROM listings l
		LEFT JOIN scores s ON s.listing_id = l.id
		ORDER BY s.total_score DESC NULLS LAST, l.scraped_at, l.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "top deals", Err: err}
	}
	defer rows.Close()

	deals, err := scanDeals(rows)
	if err != nil {
		return nil, &PersistenceError{Op: "top deals", Err: err}
	}
	return deals, nil
}

// Stats returns aggregate counters over the stored dataset.
func (r *Postgres) Stats() (models.Stats, error) {
	var stats models.Stats
	if err := r.guard("stats"); err != nil {
		return stats, err
	}

	var avg float64
	queries := []struct {
		query string
		dest  any
		args  []any
	}{
		{`SELECT COUNT(*) FROM listings`, &stats.TotalListings, nil},
		{`SELECT COALESCE(AVG(total_score), 0) FROM scores`, &avg, nil},
		{`SELECT COUNT(*) FROM scores WHERE rating = $1`, &stats.ExcellentCount, []any{models.RatingExcellent}},
		{`SELECT COUNT(*) FROM scores WHERE rating = $1`, &stats.GoodCount, []any{models.RatingGood}},
	}
	for _, q := range queries {
		if err := r.db.QueryRow(q.query, q.args...).Scan(q.dest); err != nil {
			return models.Stats{}, &PersistenceError{Op: "stats", Err: err}
		}
	}
	stats.AvgScore = int(math.Round(avg))
	return stats, nil
}

// Close releases the database handle. Every operation afterwards fails with
// ErrClosed.
func (r *Postgres) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}
