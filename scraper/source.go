// Package scraper defines the source acquisition contract. A Source produces
// raw candidate records, whether from a rendered marketplace page or from a
// synthetic generator, and that is all the rest of the pipeline may assume
// about it. Markup structure never leaks past this boundary.
package scraper

import (
	"context"
	"fmt"

	"github.com/paul-scout/micro-acquisition-scout/models"
)

// Source produces a batch of raw candidate listings matching the filters.
// A total failure (nothing usable acquired) is reported as *AcquisitionError
// so the caller can decide whether to fall back to another source.
type Source interface {
	Name() string
	Acquire(ctx context.Context, filters Filters) ([]*models.RawListing, error)
}

// Filters bounds one acquisition batch.
type Filters struct {
	PriceMin int
	PriceMax int
	Limit    int
}

// Normalize fills zero fields from defaults and caps Limit at maxLimit.
func (f Filters) Normalize(priceMin, priceMax, limit, maxLimit int) Filters {
	if f.PriceMin == 0 {
		f.PriceMin = priceMin
	}
	if f.PriceMax == 0 {
		f.PriceMax = priceMax
	}
	if f.Limit <= 0 {
		f.Limit = limit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return f
}

// Validate reports filters no source can serve.
func (f Filters) Validate() error {
	if f.PriceMin < 0 || f.PriceMax < 0 {
		return fmt.Errorf("price bounds must be non-negative, got %d..%d", f.PriceMin, f.PriceMax)
	}
	if f.PriceMin > f.PriceMax {
		return fmt.Errorf("price min %d exceeds max %d", f.PriceMin, f.PriceMax)
	}
	if f.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", f.Limit)
	}
	return nil
}

// Failure classes for acquisition errors.
const (
	KindFetch   = "fetch"   // navigation or transport failure
	KindTimeout = "timeout" // deadline exceeded while rendering
	KindEmpty   = "empty"   // page rendered but no usable cards found
)

// AcquisitionError classifies a total acquisition failure. Per-card problems
// are not errors; a card missing its minimum fields is skipped silently.
type AcquisitionError struct {
	Source string
	Kind   string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("acquisition from %s failed (%s)", e.Source, e.Kind)
	}
	return fmt.Sprintf("acquisition from %s failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }
