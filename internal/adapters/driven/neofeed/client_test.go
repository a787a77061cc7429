package neofeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedPayload = `{
  "near_earth_objects": {
    "2024-01-01": [
      {
        "id": "2000433",
        "neo_reference_id": "2000433",
        "name": "433 Eros",
        "absolute_magnitude_h": 10.4,
        "estimated_diameter": {
          "kilometers": {"estimated_diameter_min": 22.1, "estimated_diameter_max": 49.4}
        },
        "is_potentially_hazardous_asteroid": false,
        "close_approach_data": [
          {
            "close_approach_date": "2024-01-01",
            "relative_velocity": {"kilometers_per_hour": "20083.0"},
            "miss_distance": {"astronomical": "0.15", "kilometers": "22400000.5", "lunar": "58.4"},
            "orbiting_body": "Earth"
          }
        ]
      },
      {
        "id": "",
        "neo_reference_id": "999",
        "name": "incomplete",
        "close_approach_data": []
      }
    ]
  }
}`

func TestFetchWindow_ParsesStringNumerics(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedPayload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	asteroids, approaches, err := c.FetchWindow(context.Background(), "demo-key", "2024-01-01", "2024-01-07")
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "start_date=2024-01-01")
	assert.Contains(t, gotQuery, "end_date=2024-01-07")
	assert.Contains(t, gotQuery, "api_key=demo-key")

	require.Len(t, asteroids, 1)
	a := asteroids[0]
	assert.Equal(t, "2000433", a.NeoReferenceID)
	assert.Equal(t, "433 Eros", a.Name)
	assert.InDelta(t, 10.4, a.AbsoluteMagnitudeH, 0.001)
	assert.InDelta(t, 49.4, a.EstimatedDiameterMaxKM, 0.001)

	require.Len(t, approaches, 1)
	ap := approaches[0]
	assert.Equal(t, "2000433", ap.NeoReferenceID)
	assert.InDelta(t, 20083.0, ap.RelativeVelocityKMPH, 0.001)
	assert.InDelta(t, 0.15, ap.Astronomical, 0.0001)
	assert.InDelta(t, 58.4, ap.MissDistanceLunar, 0.001)
	assert.Equal(t, "Earth", ap.OrbitingBody)
}

func TestFetchWindow_SkipsIncompleteRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feedPayload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	asteroids, _, err := c.FetchWindow(context.Background(), "k", "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	assert.Len(t, asteroids, 1)
}

func TestFetchWindow_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.FetchWindow(context.Background(), "k", "2024-01-01", "2024-01-07")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchWindow_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.FetchWindow(context.Background(), "k", "2024-01-01", "2024-01-07")
	assert.Error(t, err)
}

func TestParseFloat_Lenient(t *testing.T) {
	assert.InDelta(t, 1.5, parseFloat("1.5"), 0.001)
	assert.Zero(t, parseFloat(""))
	assert.Zero(t, parseFloat("n/a"))
}
