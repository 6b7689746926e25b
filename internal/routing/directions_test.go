package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDirectionsRoute(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "38.5,-120.2", q.Get("origin"))
		require.Equal(t, "40.7,-120.95", q.Get("destination"))
		require.Equal(t, "test-key", q.Get("key"))
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"overview_polyline": {"points": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"},
				"legs": [{"distance": {"text": "12.4 km"}, "duration": {"text": "21 mins"}}]
			}]
		}`))
	}))
	defer srv.Close()

	d := NewDirections("test-key", 2*time.Second)
	d.baseURL = srv.URL

	route, err := d.Route(context.Background(),
		Point{Latitude: 38.5, Longitude: -120.2},
		Point{Latitude: 40.7, Longitude: -120.95})
	require.NoError(t, err)
	require.Equal(t, "12.4 km", route.Distance)
	require.Equal(t, "21 mins", route.Duration)
	require.Len(t, route.Points, 3)
}

func TestDirectionsNoRoute(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}))
	defer srv.Close()

	d := NewDirections("test-key", 2*time.Second)
	d.baseURL = srv.URL

	_, err := d.Route(context.Background(), Point{Latitude: 1}, Point{Latitude: 2})
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestDirectionsHTTPFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDirections("test-key", 2*time.Second)
	d.baseURL = srv.URL

	_, err := d.Route(context.Background(), Point{Latitude: 1}, Point{Latitude: 2})
	require.Error(t, err)
}
