package services

import (
	"context"
	"fmt"
	"time"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// Ensure NEOCollector implements the interface.
var _ driving.Collector = (*NEOCollector)(nil)

// feedWindowDays is the widest date range the upstream feed serves per call.
const feedWindowDays = 7

// NEOCollector walks the feed window by window and stores what it fetches.
type NEOCollector struct {
	feed  driven.FeedClient
	store driven.NEOStore
}

// NewNEOCollector creates a new collector.
func NewNEOCollector(feed driven.FeedClient, store driven.NEOStore) *NEOCollector {
	return &NEOCollector{feed: feed, store: store}
}

// Collect fetches successive 7-day windows starting at spec.Start until the
// period count or the record cap is reached. Each window is stored as it
// arrives, so an interrupted run keeps what it already fetched.
func (c *NEOCollector) Collect(ctx context.Context, spec driving.CollectSpec) (*driving.CollectResult, error) {
	if spec.APIKey == "" {
		return nil, fmt.Errorf("api key: %w", domain.ErrInvalidInput)
	}
	if spec.Periods < 1 {
		spec.Periods = 1
	}

	start := time.Now()
	if spec.Start != "" {
		t, err := time.Parse(domain.DateLayout, spec.Start)
		if err != nil {
			return nil, fmt.Errorf("start date %q: %w", spec.Start, domain.ErrInvalidInput)
		}
		start = t
	}

	result := &driving.CollectResult{}
	for w := 0; w < spec.Periods; w++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if spec.MaxRecords > 0 && result.AsteroidsFetched >= spec.MaxRecords {
			break
		}

		from := start.AddDate(0, 0, w*feedWindowDays)
		to := from.AddDate(0, 0, feedWindowDays-1)
		logger.Info("fetching window %s to %s", from.Format(domain.DateLayout), to.Format(domain.DateLayout))

		asteroids, approaches, err := c.feed.FetchWindow(ctx, spec.APIKey,
			from.Format(domain.DateLayout), to.Format(domain.DateLayout))
		if err != nil {
			return result, fmt.Errorf("fetching window %s: %w", from.Format(domain.DateLayout), err)
		}
		result.WindowsFetched++
		result.AsteroidsFetched += len(asteroids)

		inserted, err := c.store.SaveAsteroids(ctx, asteroids)
		if err != nil {
			return result, fmt.Errorf("storing asteroids: %w", err)
		}
		result.AsteroidsInserted += inserted

		stored, err := c.store.SaveApproaches(ctx, approaches)
		if err != nil {
			return result, fmt.Errorf("storing approaches: %w", err)
		}
		result.ApproachesStored += stored
	}

	logger.Info("collected %d asteroid(s) over %d window(s)", result.AsteroidsFetched, result.WindowsFetched)
	return result, nil
}
