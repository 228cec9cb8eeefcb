package route

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var (
	paris = Point{Lat: 48.8566, Lng: 2.3522}
	melun = Point{Lat: 48.5392, Lng: 2.6608}
)

func TestHaversine(t *testing.T) {
	km := Haversine(paris, melun)
	// Paris to Melun is roughly 41 km as the crow flies.
	if km < 38 || km > 45 {
		t.Fatalf("Haversine(paris, melun) = %v km", km)
	}
	if got := Haversine(paris, paris); got != 0 {
		t.Fatalf("same point distance = %v", got)
	}
}

func TestHaversineResolverZeroPoints(t *testing.T) {
	var r HaversineResolver
	if _, err := r.Distance(context.Background(), Point{}, melun); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("got %v, want ErrNoRoute", err)
	}
	km, err := r.Distance(context.Background(), paris, melun)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(km-Haversine(paris, melun)) > 1e-9 {
		t.Fatalf("resolver disagrees with Haversine: %v", km)
	}
}

func TestOSRMClientDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("overview") != "false" {
			t.Errorf("missing overview=false: %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":52340,"duration":2815}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, time.Second)
	km, err := c.Distance(context.Background(), paris, melun)
	if err != nil {
		t.Fatal(err)
	}
	if km != 52.34 {
		t.Fatalf("km = %v, want 52.34", km)
	}
}

func TestOSRMClientNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, time.Second)
	if _, err := c.Distance(context.Background(), paris, melun); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("got %v, want ErrNoRoute", err)
	}
}

func TestOSRMClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, time.Second)
	if _, err := c.Distance(context.Background(), paris, melun); err == nil {
		t.Fatal("expected error on 502")
	}
}

type stubResolver struct {
	km  float64
	err error
}

func (s stubResolver) Distance(ctx context.Context, origin, dest Point) (float64, error) {
	return s.km, s.err
}

func TestFallbackResolver(t *testing.T) {
	f := FallbackResolver{
		Primary:   stubResolver{err: errors.New("osrm down")},
		Secondary: stubResolver{km: 12},
	}
	km, err := f.Distance(context.Background(), paris, melun)
	if err != nil || km != 12 {
		t.Fatalf("fallback: %v %v", km, err)
	}

	f = FallbackResolver{Primary: stubResolver{km: 7}}
	km, err = f.Distance(context.Background(), paris, melun)
	if err != nil || km != 7 {
		t.Fatalf("primary: %v %v", km, err)
	}

	f = FallbackResolver{Primary: stubResolver{err: ErrNoRoute}}
	if _, err := f.Distance(context.Background(), paris, melun); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("no secondary: %v", err)
	}
}
