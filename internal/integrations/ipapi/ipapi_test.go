package ipapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/weather-service/internal/config"
	"github.com/sirupsen/logrus"
)

const successXML = `<?xml version="1.0" encoding="UTF-8"?>
<query>
	<status>success</status>
	<country>France</country>
	<city>Paris</city>
	<lat>48.8566</lat>
	<lon>2.3522</lon>
</query>`

const failXML = `<?xml version="1.0" encoding="UTF-8"?>
<query>
	<status>fail</status>
	<message>private range</message>
</query>`

func newTestResolver(baseURL string, cache Cache) *Resolver {
	cfg := &config.Config{GeoAPIURL: baseURL}
	return NewResolver(cfg, cache, nil, logrus.New())
}

func TestResolve_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xml/8.8.8.8" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, successXML)
	}))
	defer srv.Close()

	coords := newTestResolver(srv.URL, nil).Resolve(context.Background(), "8.8.8.8")
	if coords.Latitude == nil || coords.Longitude == nil {
		t.Fatalf("expected coordinates, got %+v", coords)
	}
	if *coords.Latitude != 48.8566 || *coords.Longitude != 2.3522 {
		t.Fatalf("coordinate mismatch: got %f,%f", *coords.Latitude, *coords.Longitude)
	}
}

func TestResolve_ProviderReportsFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, failXML)
	}))
	defer srv.Close()

	coords := newTestResolver(srv.URL, nil).Resolve(context.Background(), "10.0.0.1")
	if coords.Latitude != nil || coords.Longitude != nil {
		t.Fatalf("expected nil coordinates, got %+v", coords)
	}
}

func TestResolve_ProviderUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	coords := newTestResolver(srv.URL, nil).Resolve(context.Background(), "8.8.8.8")
	if coords.Latitude != nil || coords.Longitude != nil {
		t.Fatalf("expected nil coordinates, got %+v", coords)
	}
}

func TestResolve_MalformedXML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<query><status>success</status><lat>abc</lat><lon>1</lon></query>")
	}))
	defer srv.Close()

	coords := newTestResolver(srv.URL, nil).Resolve(context.Background(), "8.8.8.8")
	if coords.Latitude != nil || coords.Longitude != nil {
		t.Fatalf("expected nil coordinates, got %+v", coords)
	}
}

func TestResolve_EmptyIP(t *testing.T) {
	t.Parallel()

	coords := newTestResolver("http://unused.invalid", nil).Resolve(context.Background(), "")
	if coords.Latitude != nil || coords.Longitude != nil {
		t.Fatalf("expected nil coordinates, got %+v", coords)
	}
}

// fakeCache is an in-memory Cache for tests
type fakeCache struct {
	entries map[string]Coordinates
	sets    int
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	coords, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	*dest.(*Coordinates) = coords
	return true, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}) error {
	f.entries[key] = value.(Coordinates)
	f.sets++
	return nil
}

func TestResolve_CacheHitSkipsProvider(t *testing.T) {
	t.Parallel()

	lat, lon := 1.5, 2.5
	fc := &fakeCache{entries: map[string]Coordinates{
		"8.8.8.8": {Latitude: &lat, Longitude: &lon},
	}}

	var providerCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerCalls++
		fmt.Fprint(w, successXML)
	}))
	defer srv.Close()

	coords := newTestResolver(srv.URL, fc).Resolve(context.Background(), "8.8.8.8")
	if coords.Latitude == nil || *coords.Latitude != 1.5 {
		t.Fatalf("expected cached coordinates, got %+v", coords)
	}
	if providerCalls != 0 {
		t.Fatalf("expected no provider call on cache hit, got %d", providerCalls)
	}
}

func TestResolve_CacheMissPopulatesCache(t *testing.T) {
	t.Parallel()

	fc := &fakeCache{entries: map[string]Coordinates{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, successXML)
	}))
	defer srv.Close()

	coords := newTestResolver(srv.URL, fc).Resolve(context.Background(), "8.8.8.8")
	if coords.Latitude == nil {
		t.Fatalf("expected coordinates, got %+v", coords)
	}
	if fc.sets != 1 {
		t.Fatalf("expected one cache set, got %d", fc.sets)
	}
}
