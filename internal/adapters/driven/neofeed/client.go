// Package neofeed implements the NASA near-earth-object feed client.
package neofeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// DefaultBaseURL is the NASA NeoWs feed endpoint.
const DefaultBaseURL = "https://api.nasa.gov/neo/rest/v1/feed"

// Ensure Client implements the interface.
var _ driven.FeedClient = (*Client)(nil)

// Client fetches feed windows with paced requests so successive windows do
// not hammer the API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a feed client. An empty baseURL selects the default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

// Feed wire types. Numeric values arrive as JSON strings.
type feedResponse struct {
	NearEarthObjects map[string][]feedAsteroid `json:"near_earth_objects"`
}

type feedAsteroid struct {
	ID                 string  `json:"id"`
	NeoReferenceID     string  `json:"neo_reference_id"`
	Name               string  `json:"name"`
	AbsoluteMagnitudeH float64 `json:"absolute_magnitude_h"`
	EstimatedDiameter  struct {
		Kilometers struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"kilometers"`
	} `json:"estimated_diameter"`
	IsPotentiallyHazardous bool           `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData      []feedApproach `json:"close_approach_data"`
}

type feedApproach struct {
	CloseApproachDate string `json:"close_approach_date"`
	RelativeVelocity  struct {
		KilometersPerHour string `json:"kilometers_per_hour"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Astronomical string `json:"astronomical"`
		Kilometers   string `json:"kilometers"`
		Lunar        string `json:"lunar"`
	} `json:"miss_distance"`
	OrbitingBody string `json:"orbiting_body"`
}

// FetchWindow retrieves one inclusive date window. Records missing an id,
// name or approach data are skipped, matching the upstream feed's habit of
// returning partial entries.
func (c *Client) FetchWindow(ctx context.Context, apiKey, start, end string) ([]domain.Asteroid, []domain.CloseApproach, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	q := url.Values{}
	q.Set("start_date", start)
	q.Set("end_date", end)
	q.Set("api_key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, nil, fmt.Errorf("decoding feed: %w", err)
	}

	var asteroids []domain.Asteroid
	var approaches []domain.CloseApproach
	for _, daily := range feed.NearEarthObjects {
		for _, a := range daily {
			if a.ID == "" || a.NeoReferenceID == "" || a.Name == "" || len(a.CloseApproachData) == 0 {
				logger.Debug("skipping incomplete record %q", a.ID)
				continue
			}

			asteroids = append(asteroids, domain.Asteroid{
				ID:                     a.ID,
				NeoReferenceID:         a.NeoReferenceID,
				Name:                   a.Name,
				AbsoluteMagnitudeH:     a.AbsoluteMagnitudeH,
				EstimatedDiameterMinKM: a.EstimatedDiameter.Kilometers.Min,
				EstimatedDiameterMaxKM: a.EstimatedDiameter.Kilometers.Max,
				IsPotentiallyHazardous: a.IsPotentiallyHazardous,
			})

			for _, ap := range a.CloseApproachData {
				if ap.CloseApproachDate == "" {
					continue
				}
				approaches = append(approaches, domain.CloseApproach{
					NeoReferenceID:       a.NeoReferenceID,
					CloseApproachDate:    ap.CloseApproachDate,
					RelativeVelocityKMPH: parseFloat(ap.RelativeVelocity.KilometersPerHour),
					Astronomical:         parseFloat(ap.MissDistance.Astronomical),
					MissDistanceKM:       parseFloat(ap.MissDistance.Kilometers),
					MissDistanceLunar:    parseFloat(ap.MissDistance.Lunar),
					OrbitingBody:         orDefault(ap.OrbitingBody, "Earth"),
				})
			}
		}
	}
	return asteroids, approaches, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
