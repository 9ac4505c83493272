package storage

import (
	"database/sql"
	"time"

	"github.com/paul-scout/micro-acquisition-scout/models"
)

// Column lists shared by both SQL drivers. The logical schema is identical;
// only placeholders and null ordering differ per engine.
const (
	listingColumns = `l.id, l.platform, l.title, l.url, l.price, l.monthly_revenue,
		l.monthly_profit, l.profit_multiple, l.category, l.monetization, l.description,
		l.age_months, l.traffic_monthly, l.seller_reason, l.listing_date, l.scraped_at, l.updated_at`

	scoreColumns = `s.total_score, s.rating, s.score_multiple, s.score_profit_margin,
		s.score_price_value, s.score_age, s.score_traffic, s.computed_at`
)

type scannable interface {
	Scan(dest ...any) error
}

func scanListing(row scannable) (*models.Listing, error) {
	var l models.Listing
	var listingDate sql.NullTime
	if err := row.Scan(
		&l.ID, &l.Platform, &l.Title, &l.URL, &l.Price, &l.MonthlyRevenue,
		&l.MonthlyProfit, &l.ProfitMultiple, &l.Category, &l.Monetization, &l.Description,
		&l.AgeMonths, &l.TrafficMonthly, &l.SellerReason, &listingDate, &l.ScrapedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if listingDate.Valid {
		l.ListingDate = listingDate.Time
	}
	return &l, nil
}

// scanDeals reads joined listing+score rows. Score columns are nullable: a
// listing without a score yields a nil Score.
func scanDeals(rows *sql.Rows) ([]models.Deal, error) {
	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		var listingDate, computedAt sql.NullTime
		var total, multiple, margin, value, age, traffic sql.NullInt64
		var rating sql.NullString

		if err := rows.Scan(
			&d.Listing.ID, &d.Listing.Platform, &d.Listing.Title, &d.Listing.URL,
			&d.Listing.Price, &d.Listing.MonthlyRevenue, &d.Listing.MonthlyProfit,
			&d.Listing.ProfitMultiple, &d.Listing.Category, &d.Listing.Monetization,
			&d.Listing.Description, &d.Listing.AgeMonths, &d.Listing.TrafficMonthly,
			&d.Listing.SellerReason, &listingDate, &d.Listing.ScrapedAt, &d.Listing.UpdatedAt,
			&total, &rating, &multiple, &margin, &value, &age, &traffic, &computedAt,
		); err != nil {
			return nil, err
		}

		if listingDate.Valid {
			d.Listing.ListingDate = listingDate.Time
		}
		if total.Valid {
			d.Score = &models.Score{
				Total: int(total.Int64),
				Breakdown: models.Breakdown{
					Multiple:     int(multiple.Int64),
					ProfitMargin: int(margin.Int64),
					PriceValue:   int(value.Int64),
					Age:          int(age.Int64),
					Traffic:      int(traffic.Int64),
				},
				Rating:     rating.String,
				ComputedAt: computedAt.Time,
			}
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
