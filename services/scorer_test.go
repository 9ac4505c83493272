package services

import (
	"testing"
	"time"

	"github.com/paul-scout/micro-acquisition-scout/config"
	"github.com/paul-scout/micro-acquisition-scout/models"
)

var testWeights = config.Weights{
	Multiple:     0.30,
	ProfitMargin: 0.25,
	PriceValue:   0.20,
	Age:          0.15,
	Traffic:      0.10,
}

func TestScoreMultipleBands(t *testing.T) {
	tests := []struct {
		multiple float64
		want     int
	}{
		{0, 0},
		{-1, 0},
		{1.4, 100},
		{1.5, 90},
		{1.99, 90},
		{2.0, 75}, // exactly 2.0 is not <2.0, falls to the next band
		{2.5, 60},
		{3.0, 40},
		{4.0, 20},
		{10, 20},
	}

	for _, tt := range tests {
		if got := scoreMultiple(tt.multiple); got != tt.want {
			t.Errorf("scoreMultiple(%.2f) = %d; want %d", tt.multiple, got, tt.want)
		}
	}
}

func TestScoreProfitMarginBands(t *testing.T) {
	tests := []struct {
		profit  int
		revenue int
		want    int
	}{
		{100, 0, 0},
		{700, 1000, 100},
		{600, 1000, 90},
		{500, 1000, 80},
		{400, 1000, 70},
		{300, 1000, 60},
		{200, 1000, 40},
		{100, 1000, 20},
	}

	for _, tt := range tests {
		if got := scoreProfitMargin(tt.profit, tt.revenue); got != tt.want {
			t.Errorf("scoreProfitMargin(%d, %d) = %d; want %d", tt.profit, tt.revenue, got, tt.want)
		}
	}
}

func TestScorePriceValueBands(t *testing.T) {
	tests := []struct {
		price int
		want  int
	}{
		{10000, 100},
		{30000, 100},
		{8000, 85},
		{35000, 85},
		{5000, 70},
		{40000, 70},
		{4999, 50},
		{45000, 50},
		{0, 50},
	}

	for _, tt := range tests {
		if got := scorePriceValue(tt.price); got != tt.want {
			t.Errorf("scorePriceValue(%d) = %d; want %d", tt.price, got, tt.want)
		}
	}
}

func TestScoreAgeBands(t *testing.T) {
	tests := []struct {
		months int
		want   int
	}{
		{12, 100},
		{36, 100},
		{6, 80},
		{48, 80},
		{3, 60},
		{60, 60},
		{2, 40},
		{70, 40},
	}

	for _, tt := range tests {
		if got := scoreAge(tt.months); got != tt.want {
			t.Errorf("scoreAge(%d) = %d; want %d", tt.months, got, tt.want)
		}
	}
}

func TestScoreTrafficBands(t *testing.T) {
	tests := []struct {
		visits int
		want   int
	}{
		{50000, 100},
		{20000, 85},
		{10000, 70},
		{5000, 55},
		{4999, 40},
		{0, 40},
	}

	for _, tt := range tests {
		if got := scoreTraffic(tt.visits); got != tt.want {
			t.Errorf("scoreTraffic(%d) = %d; want %d", tt.visits, got, tt.want)
		}
	}
}

func TestRatingStepFunction(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{85, models.RatingExcellent},
		{84, models.RatingGood},
		{70, models.RatingGood},
		{69, models.RatingFair},
		{55, models.RatingFair},
		{54, models.RatingBelowAverage},
		{40, models.RatingBelowAverage},
		{39, models.RatingPoor},
		{0, models.RatingPoor},
	}

	for _, tt := range tests {
		if got := ratingFor(tt.total); got != tt.want {
			t.Errorf("ratingFor(%d) = %q; want %q", tt.total, got, tt.want)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewScorer(testWeights)
	l := &models.Listing{
		Price:          20000,
		MonthlyRevenue: 4000,
		MonthlyProfit:  2800,
		ProfitMultiple: 7.14,
		AgeMonths:      24,
		TrafficMonthly: 60000,
	}

	first := s.Score(l)
	for i := 0; i < 10; i++ {
		again := s.Score(l)
		if again.Total != first.Total || again.Breakdown != first.Breakdown || again.Rating != first.Rating {
			t.Fatalf("score changed between calls: %+v vs %+v", again, first)
		}
	}
}

func TestScoreIsWeightedSum(t *testing.T) {
	s := NewScorer(testWeights)
	l := &models.Listing{
		Price:          20000, // 100
		MonthlyRevenue: 4000,
		MonthlyProfit:  2800, // margin 70% → 100
		ProfitMultiple: 7.14, // → 20
		AgeMonths:      24,    // 100
		TrafficMonthly: 60000, // 100
	}

	got := s.Score(l)

	// round(0.30*20 + 0.25*100 + 0.20*100 + 0.15*100 + 0.10*100) = 76
	if got.Total != 76 {
		t.Errorf("Total = %d; want 76", got.Total)
	}
	if got.Rating != models.RatingGood {
		t.Errorf("Rating = %q; want %q", got.Rating, models.RatingGood)
	}
	if got.Breakdown.Multiple != 20 || got.Breakdown.ProfitMargin != 100 ||
		got.Breakdown.PriceValue != 100 || got.Breakdown.Age != 100 || got.Breakdown.Traffic != 100 {
		t.Errorf("unexpected breakdown: %+v", got.Breakdown)
	}
	if got.ComputedAt.IsZero() || time.Since(got.ComputedAt) > time.Minute {
		t.Errorf("ComputedAt not set to the scoring instant: %v", got.ComputedAt)
	}
}

func TestScoreAllSortsDescendingStable(t *testing.T) {
	s := NewScorer(testWeights)

	strong := &models.Listing{Title: "strong", Price: 15000, MonthlyRevenue: 4000,
		MonthlyProfit: 2800, ProfitMultiple: 1.4, AgeMonths: 24, TrafficMonthly: 60000}
	tieA := &models.Listing{Title: "tie-a", Price: 20000, MonthlyRevenue: 4000,
		MonthlyProfit: 2800, ProfitMultiple: 7.14, AgeMonths: 24, TrafficMonthly: 60000}
	tieB := &models.Listing{Title: "tie-b", Price: 20000, MonthlyRevenue: 4000,
		MonthlyProfit: 2800, ProfitMultiple: 7.14, AgeMonths: 24, TrafficMonthly: 60000}

	scored := s.ScoreAll([]*models.Listing{tieA, strong, tieB})

	if len(scored) != 3 {
		t.Fatalf("got %d scored listings, want 3", len(scored))
	}
	if scored[0].Listing.Title != "strong" {
		t.Errorf("best listing is %q, want strong first", scored[0].Listing.Title)
	}
	if scored[1].Listing.Title != "tie-a" || scored[2].Listing.Title != "tie-b" {
		t.Errorf("tie order not stable: got %q then %q", scored[1].Listing.Title, scored[2].Listing.Title)
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].Score.Total > scored[i-1].Score.Total {
			t.Errorf("not sorted descending at %d: %d > %d", i, scored[i].Score.Total, scored[i-1].Score.Total)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	if sum := testWeights.Sum(); sum < 1.0-1e-9 || sum > 1.0+1e-9 {
		t.Errorf("default weights sum to %v, want 1.0", sum)
	}
}
