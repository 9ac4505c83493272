package storage

import (
	"errors"
	"fmt"

	"github.com/paul-scout/micro-acquisition-scout/models"
)

// ErrClosed is returned by every operation on a repository after Close.
var ErrClosed = errors.New("repository is closed")

// PersistenceError classifies a storage failure. Per-item failures are
// recoverable (the batch continues); an error wrapping ErrClosed means the
// repository handle itself is unusable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Repository is the interface any durable listing store must satisfy.
//
// UpsertListing inserts a new listing or, when the URL is already known,
// updates the mutable financial fields in place. It returns the stored
// listing id: the id of the first sighting survives merges, so scores must
// attach to the returned id, not the caller's.
type Repository interface {
	UpsertListing(l *models.Listing) (string, error)
	SaveScore(listingID string, score models.Score) error
	GetListing(id string) (*models.Listing, error)
	TopDeals(limit int) ([]models.Deal, error)
	Stats() (models.Stats, error)
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
