package services

import (
	"fmt"
	"strings"

	"github.com/paul-scout/micro-acquisition-scout/models"
)

// Reporter renders the post-run console report: top deals and aggregate stats.
type Reporter struct{}

// NewReporter creates a Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Print writes the deal report to stdout.
func (r *Reporter) Print(deals []models.Deal, stats models.Stats) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏆 MICRO-ACQUISITION SCOUT — TOP DEALS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	if len(deals) == 0 {
		fmt.Printf("  No deals stored yet\n")
	}
	for i, d := range deals {
		fmt.Printf("  \033[1m%d. %s\033[0m\n", i+1, truncate(d.Listing.Title, 48))
		fmt.Printf("     💰 Price    : $%d\n", d.Listing.Price)
		fmt.Printf("     📈 Revenue  : $%d/mo\n", d.Listing.MonthlyRevenue)
		fmt.Printf("     💵 Profit   : $%d/mo\n", d.Listing.MonthlyProfit)
		fmt.Printf("     📊 Multiple : %.2fx\n", d.Listing.ProfitMultiple)
		if d.Score != nil {
			fmt.Printf("     ⭐ Score    : \033[1;32m%d/100 (%s)\033[0m\n", d.Score.Total, d.Score.Rating)
		} else {
			fmt.Printf("     ⭐ Score    : not computed\n")
		}
		fmt.Printf("     🔗 %s\n\n", d.Listing.URL)
	}

	fmt.Printf("\033[1;33m  Summary\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings  : \033[1m%d\033[0m\n", stats.TotalListings)
	fmt.Printf("  Average score   : \033[1m%d/100\033[0m\n", stats.AvgScore)
	fmt.Printf("  Excellent deals : \033[1;32m%d\033[0m\n", stats.ExcellentCount)
	fmt.Printf("  Good deals      : \033[1;32m%d\033[0m\n", stats.GoodCount)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
