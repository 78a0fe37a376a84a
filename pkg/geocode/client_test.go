package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchPayload(name string) string {
	return fmt.Sprintf(`{"results":[{"name":%q,"formatted":"%s, Burbank CA","lat":34.15,"lon":-118.33}]}`, name, name)
}

func TestSearchPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/autocomplete", r.URL.Path)
		assert.Equal(t, "Warner", r.URL.Query().Get("text"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, searchPayload("Warner Bros. Studios"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	suggestions, err := c.SearchPlaces(context.Background(), "Warner")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Warner Bros. Studios", suggestions[0].Name)
	assert.Equal(t, 34.15, suggestions[0].Latitude)
}

func TestSearchPlacesSharesInflightCall(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		fmt.Fprint(w, searchPayload("Stage 4"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second)

	var wg sync.WaitGroup
	results := make([][]PlaceSuggestion, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.SearchPlaces(context.Background(), "Stage 4")
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	// Give the followers time to attach to the in-flight call, then let the
	// upstream respond.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls),
		"concurrent identical queries must share one upstream call")
	for _, got := range results {
		require.Len(t, got, 1)
		assert.Equal(t, "Stage 4", got[0].Name)
	}
}

func TestSearchPlacesDistinctQueriesAreIndependent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, searchPayload(r.URL.Query().Get("text")))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	_, err := c.SearchPlaces(context.Background(), "Warner")
	require.NoError(t, err)
	_, err = c.SearchPlaces(context.Background(), "Universal")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchPlacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	_, err := c.SearchPlaces(context.Background(), "Warner")
	assert.Error(t, err)
}

func TestCalculateRouteDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geocode/autocomplete":
			fmt.Fprint(w, searchPayload(r.URL.Query().Get("text")))
		case "/routing":
			// 6.7 miles in meters.
			fmt.Fprint(w, `{"features":[{"properties":{"distance":10782.6}}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	miles, err := c.CalculateRouteDistance(context.Background(), "Stage 4", "Location")
	require.NoError(t, err)
	assert.True(t, miles.Equal(decimal.RequireFromString("6.7")),
		"got %s miles", miles)
}

func TestCalculateRouteDistanceUnknownAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	_, err := c.CalculateRouteDistance(context.Background(), "Nowhere", "Anywhere")
	assert.Error(t, err)
}

func TestCalculateRouteDistanceNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geocode/autocomplete":
			fmt.Fprint(w, searchPayload("somewhere"))
		case "/routing":
			fmt.Fprint(w, `{"features":[]}`)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	_, err := c.CalculateRouteDistance(context.Background(), "A", "B")
	assert.Error(t, err)
}
