package driven

import (
	"context"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
)

// NEOStore persists collected near-earth-object records and answers
// analytical queries over them.
type NEOStore interface {
	// SaveAsteroids inserts asteroids, ignoring ones already stored.
	// Returns the number of newly inserted rows.
	SaveAsteroids(ctx context.Context, asteroids []domain.Asteroid) (int, error)

	// SaveApproaches inserts close-approach records.
	SaveApproaches(ctx context.Context, approaches []domain.CloseApproach) (int, error)

	// Counts returns the stored asteroid and close-approach row counts.
	Counts(ctx context.Context) (asteroids, approaches int, err error)

	// QueryNames lists the available canned query names.
	QueryNames() []string

	// Query runs a canned query by name.
	Query(ctx context.Context, name string) (*domain.ResultSet, error)

	// Filter runs a close-approach query constrained by the filter.
	Filter(ctx context.Context, f domain.NEOFilter) (*domain.ResultSet, error)

	// Purge deletes all stored records.
	Purge(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}

// FeedClient fetches near-earth-object data from the upstream feed.
type FeedClient interface {
	// FetchWindow retrieves asteroids and approaches for one date window.
	// Dates are inclusive, YYYY-MM-DD.
	FetchWindow(ctx context.Context, apiKey, start, end string) ([]domain.Asteroid, []domain.CloseApproach, error)
}
