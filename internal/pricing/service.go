package pricing

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/coursio/backend-pricing/internal/route"
	"github.com/coursio/backend-pricing/internal/tariff"
)

// RateSource resolves the pickup charges for a city. *tariff.Store
// implements it.
type RateSource interface {
	CityRates(ctx context.Context, city string) (tariff.CityRate, error)
}

// ConfigSource supplies the active tariff snapshot. *tariff.Loader
// implements it.
type ConfigSource interface {
	Load(ctx context.Context) (tariff.Config, error)
}

// Service prices routes. All fields must be set except Resolver, which may
// be nil when only client-supplied or default distances are wanted.
type Service struct {
	Rates    RateSource
	Config   ConfigSource
	Resolver route.Resolver

	gen atomic.Uint64
}

// Request describes a route to price. DistanceKm > 0 means the caller
// already knows the road distance; zero asks the service to resolve it.
// Immediate marks a pickup requested for right now rather than a scheduled
// one.
type Request struct {
	Origin      string  `json:"origin" validate:"max=120"`
	Destination string  `json:"destination" validate:"max=120"`
	DistanceKm  float64 `json:"distanceKm" validate:"gte=0,lte=1000"`
	Immediate   bool    `json:"immediate"`
}

// Distance provenance reported on results.
const (
	DistanceClient   = "client"
	DistanceResolved = "resolved"
	DistanceDefault  = "default"
	DistanceExempt   = "exempt"
)

// Result is a priced route. Quotes always holds one entry per formula, in
// display order, so clients can render the full table even when some
// formulas are unavailable.
type Result struct {
	// ID identifies this quote in logs and downstream order references.
	ID             uuid.UUID       `json:"id"`
	Generation     uint64          `json:"generation"`
	Origin         tariff.CityRate `json:"origin"`
	Destination    tariff.CityRate `json:"destination"`
	DistanceKm     float64         `json:"distanceKm"`
	DistanceSource string          `json:"distanceSource"`
	Quotes         []Quote         `json:"quotes"`
}

// Generation returns the number of computations performed. Callers holding
// a Result can discard it as stale when the service has moved past its
// generation.
func (s *Service) Generation() uint64 { return s.gen.Load() }

// Price computes quotes for every formula on the requested route.
//
// A request naming a single endpoint is priced as a pickup-charge-only
// lookup for that city. A route where either endpoint is Paris is exempt
// from the kilometre supplement, so no distance is resolved for it.
func (s *Service) Price(ctx context.Context, req Request) (Result, error) {
	origin := strings.TrimSpace(req.Origin)
	dest := strings.TrimSpace(req.Destination)
	if origin == "" && dest == "" {
		return Result{}, fmt.Errorf("%w: no endpoints", ErrInvalidRoute)
	}
	if req.DistanceKm < 0 {
		return Result{}, fmt.Errorf("%w: negative distance", ErrInvalidRoute)
	}
	single := origin == "" || dest == ""
	if origin == "" {
		origin = dest
	}
	if dest == "" {
		dest = origin
	}

	cfg, err := s.Config.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	originRow, err := s.Rates.CityRates(ctx, origin)
	if err != nil {
		return Result{}, fmt.Errorf("origin %q: %w", origin, err)
	}
	destRow, err := s.Rates.CityRates(ctx, dest)
	if err != nil {
		return Result{}, fmt.Errorf("destination %q: %w", dest, err)
	}

	km, source := s.distance(ctx, req, originRow, destRow, cfg, single)

	res := Result{
		ID:             uuid.New(),
		Generation:     s.gen.Add(1),
		Origin:         originRow,
		Destination:    destRow,
		DistanceKm:     km,
		DistanceSource: source,
		Quotes:         ComputeAll(originRow, destRow, km, cfg, req.Immediate),
	}
	return res, nil
}

// distance picks the billed distance: client-supplied, then resolver over
// the city coordinates, then the configured default tier. Supplement-exempt
// routes skip resolution since the distance cannot affect the price. Only
// Paris routes and single-endpoint lookups are exempt; a suburb route stays
// billable even when both endpoints name the same city.
func (s *Service) distance(ctx context.Context, req Request, origin, dest tariff.CityRate, cfg tariff.Config, single bool) (float64, string) {
	if single || tariff.IsParis(origin.City) || tariff.IsParis(dest.City) {
		return 0, DistanceExempt
	}
	if req.DistanceKm > 0 {
		return req.DistanceKm, DistanceClient
	}
	if s.Resolver != nil {
		op := route.Point{Lat: origin.Lat, Lng: origin.Lng}
		dp := route.Point{Lat: dest.Lat, Lng: dest.Lng}
		if !op.Zero() && !dp.Zero() {
			if km, err := s.Resolver.Distance(ctx, op, dp); err == nil && km > 0 {
				return km, DistanceResolved
			}
		}
	}
	return cfg.DefaultDistanceKm, DistanceDefault
}
