package services

import (
	"math"
	"sort"
	"time"

	"github.com/paul-scout/micro-acquisition-scout/config"
	"github.com/paul-scout/micro-acquisition-scout/models"
)

// Scorer evaluates listings against a fixed weight vector. Scoring is a pure
// function of the listing and the weights: no I/O, no hidden state, repeated
// calls yield identical results.
type Scorer struct {
	weights config.Weights
}

// NewScorer creates a Scorer with the given weight vector. Callers validate
// the weights at startup; the Scorer takes them as given.
func NewScorer(weights config.Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Scored pairs a listing with its computed score.
type Scored struct {
	Listing *models.Listing
	Score   models.Score
}

// Score evaluates one listing on the 0-100 scale.
func (s *Scorer) Score(l *models.Listing) models.Score {
	breakdown := models.Breakdown{
		Multiple:     scoreMultiple(l.ProfitMultiple),
		ProfitMargin: scoreProfitMargin(l.MonthlyProfit, l.MonthlyRevenue),
		PriceValue:   scorePriceValue(l.Price),
		Age:          scoreAge(l.AgeMonths),
		Traffic:      scoreTraffic(l.TrafficMonthly),
	}

	total := int(math.Round(
		s.weights.Multiple*float64(breakdown.Multiple) +
			s.weights.ProfitMargin*float64(breakdown.ProfitMargin) +
			s.weights.PriceValue*float64(breakdown.PriceValue) +
			s.weights.Age*float64(breakdown.Age) +
			s.weights.Traffic*float64(breakdown.Traffic)))

	return models.Score{
		Total:      total,
		Breakdown:  breakdown,
		Rating:     ratingFor(total),
		ComputedAt: time.Now(),
	}
}

// ScoreAll scores every listing and returns the results sorted by total
// descending. Ties keep the input order.
func (s *Scorer) ScoreAll(listings []*models.Listing) []Scored {
	scored := make([]Scored, 0, len(listings))
	for _, l := range listings {
		scored = append(scored, Scored{Listing: l, Score: s.Score(l)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Total > scored[j].Score.Total
	})
	return scored
}

// scoreMultiple rewards a low price-to-profit multiple. A missing or
// non-positive multiple means the ratio is undefined and scores zero.
func scoreMultiple(multiple float64) int {
	switch {
	case multiple <= 0:
		return 0
	case multiple < 1.5:
		return 100
	case multiple < 2.0:
		return 90
	case multiple < 2.5:
		return 75
	case multiple < 3.0:
		return 60
	case multiple < 4.0:
		return 40
	default:
		return 20
	}
}

// scoreProfitMargin rewards a high profit/revenue ratio.
func scoreProfitMargin(profit, revenue int) int {
	if revenue <= 0 {
		return 0
	}
	margin := float64(profit) / float64(revenue) * 100
	switch {
	case margin >= 70:
		return 100
	case margin >= 60:
		return 90
	case margin >= 50:
		return 80
	case margin >= 40:
		return 70
	case margin >= 30:
		return 60
	case margin >= 20:
		return 40
	default:
		return 20
	}
}

// scorePriceValue rewards the $10k-$30k sweet spot. Bands are nested, so they
// must be checked narrowest first.
func scorePriceValue(price int) int {
	switch {
	case price >= 10000 && price <= 30000:
		return 100
	case price >= 8000 && price <= 35000:
		return 85
	case price >= 5000 && price <= 40000:
		return 70
	default:
		return 50
	}
}

// scoreAge rewards businesses established 12-36 months: old enough to be
// proven, young enough to grow.
func scoreAge(ageMonths int) int {
	switch {
	case ageMonths >= 12 && ageMonths <= 36:
		return 100
	case ageMonths >= 6 && ageMonths <= 48:
		return 80
	case ageMonths >= 3 && ageMonths <= 60:
		return 60
	default:
		return 40
	}
}

// scoreTraffic rewards monthly visits, secondary to the financials.
func scoreTraffic(monthlyVisits int) int {
	switch {
	case monthlyVisits >= 50000:
		return 100
	case monthlyVisits >= 20000:
		return 85
	case monthlyVisits >= 10000:
		return 70
	case monthlyVisits >= 5000:
		return 55
	default:
		return 40
	}
}

// ratingFor maps a total score to its categorical label.
func ratingFor(total int) string {
	switch {
	case total >= 85:
		return models.RatingExcellent
	case total >= 70:
		return models.RatingGood
	case total >= 55:
		return models.RatingFair
	case total >= 40:
		return models.RatingBelowAverage
	default:
		return models.RatingPoor
	}
}
