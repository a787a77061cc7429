package driving

import "context"

// CollectSpec configures one near-earth-object collection run.
type CollectSpec struct {
	APIKey string

	// Start is the first date of the first window, YYYY-MM-DD.
	// Empty means today.
	Start string

	// Periods is the number of 7-day windows to fetch.
	Periods int

	// MaxRecords stops collection once this many asteroids have been
	// fetched. Zero means no cap.
	MaxRecords int
}

// CollectResult summarises a collection run.
type CollectResult struct {
	WindowsFetched    int
	AsteroidsFetched  int
	AsteroidsInserted int
	ApproachesStored  int
}

// Collector runs near-earth-object collection into the local store.
type Collector interface {
	Collect(ctx context.Context, spec CollectSpec) (*CollectResult, error)
}
