package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

// ErrNoRoute means the directions service answered but found no way there.
var ErrNoRoute = errors.New("routing: no route found")

// Route is a drivable path plus the service's human-readable summary.
type Route struct {
	Points   []Point
	Distance string
	Duration string
}

// Directions looks up driving routes. Construct with NewDirections.
type Directions struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

func NewDirections(apiKey string, timeout time.Duration) *Directions {
	return &Directions{
		http:    &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: defaultDirectionsURL,
	}
}

// directionsResponse mirrors the slice of the Google payload we read.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Text string `json:"text"`
			} `json:"distance"`
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route fetches a driving route from origin to destination.
func (d *Directions) Route(ctx context.Context, origin, dest Point) (Route, error) {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%v,%v", origin.Latitude, origin.Longitude))
	q.Set("destination", fmt.Sprintf("%v,%v", dest.Latitude, dest.Longitude))
	q.Set("key", d.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Route{}, fmt.Errorf("routing: %w", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("routing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("routing: directions status %d", resp.StatusCode)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Route{}, fmt.Errorf("routing: decode directions: %w", err)
	}
	if len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("%w: %s", ErrNoRoute, body.Status)
	}

	r := body.Routes[0]
	return Route{
		Points:   DecodePolyline(r.OverviewPolyline.Points),
		Distance: r.Legs[0].Distance.Text,
		Duration: r.Legs[0].Duration.Text,
	}, nil
}
