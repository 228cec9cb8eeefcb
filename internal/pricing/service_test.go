package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coursio/backend-pricing/internal/route"
	"github.com/coursio/backend-pricing/internal/tariff"
)

type gridRates struct{}

func (gridRates) CityRates(ctx context.Context, city string) (tariff.CityRate, error) {
	if row, ok := tariff.LookupGrid(city); ok {
		return row, nil
	}
	return tariff.CityRate{}, tariff.ErrCityNotFound
}

type staticConfig struct {
	cfg tariff.Config
	err error
}

func (s staticConfig) Load(ctx context.Context) (tariff.Config, error) { return s.cfg, s.err }

type fixedResolver struct {
	km    float64
	err   error
	calls int
}

func (r *fixedResolver) Distance(ctx context.Context, origin, dest route.Point) (float64, error) {
	r.calls++
	return r.km, r.err
}

func newTestService(resolver route.Resolver) *Service {
	return &Service{
		Rates:    gridRates{},
		Config:   staticConfig{cfg: tariff.DefaultConfig()},
		Resolver: resolver,
	}
}

func TestPriceBlankRoute(t *testing.T) {
	s := newTestService(nil)
	_, err := s.Price(context.Background(), Request{})
	if !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("got %v, want ErrInvalidRoute", err)
	}
	_, err = s.Price(context.Background(), Request{Origin: "Paris", DistanceKm: -1})
	if !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("negative distance: got %v", err)
	}
}

func TestPriceUnknownCity(t *testing.T) {
	s := newTestService(nil)
	_, err := s.Price(context.Background(), Request{Origin: "Paris", Destination: "Atlantis"})
	if !errors.Is(err, tariff.ErrCityNotFound) {
		t.Fatalf("got %v, want ErrCityNotFound", err)
	}
}

func TestPriceConfigFailure(t *testing.T) {
	s := newTestService(nil)
	s.Config = staticConfig{err: tariff.ErrConfigUnavailable}
	_, err := s.Price(context.Background(), Request{Origin: "Paris", Destination: "Melun"})
	if !errors.Is(err, tariff.ErrConfigUnavailable) {
		t.Fatalf("got %v, want ErrConfigUnavailable", err)
	}
}

func TestPriceParisRouteSkipsResolver(t *testing.T) {
	resolver := &fixedResolver{km: 40}
	s := newTestService(resolver)

	res, err := s.Price(context.Background(), Request{Origin: "Paris", Destination: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceExempt || res.DistanceKm != 0 {
		t.Fatalf("distance = %v (%s), want 0 (exempt)", res.DistanceKm, res.DistanceSource)
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver called %d times for an exempt route", resolver.calls)
	}
	if len(res.Quotes) != len(tariff.Formulas()) {
		t.Fatalf("expected %d quotes, got %d", len(tariff.Formulas()), len(res.Quotes))
	}
}

func TestPriceClientDistanceWins(t *testing.T) {
	resolver := &fixedResolver{km: 99}
	s := newTestService(resolver)

	res, err := s.Price(context.Background(), Request{Origin: "Versailles", Destination: "Melun", DistanceKm: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceClient || res.DistanceKm != 10 {
		t.Fatalf("distance = %v (%s), want 10 (client)", res.DistanceKm, res.DistanceSource)
	}
	if resolver.calls != 0 {
		t.Fatal("resolver must not run when the client supplied a distance")
	}
}

func TestPriceSameCityBillsSupplement(t *testing.T) {
	s := newTestService(nil)

	res, err := s.Price(context.Background(), Request{Origin: "Versailles", Destination: "Versailles", DistanceKm: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceClient || res.DistanceKm != 10 {
		t.Fatalf("distance = %v (%s), want 10 (client)", res.DistanceKm, res.DistanceSource)
	}
	for _, q := range res.Quotes {
		if q.Formula != tariff.FormulaNormal {
			continue
		}
		if q.SupplementMilliBons != 1000 {
			t.Fatalf("supplement = %d milli-bons, want 1000", q.SupplementMilliBons)
		}
		if !q.Bons.Equal(decimal.NewFromInt(9)) {
			t.Fatalf("Versailles-Versailles Standard = %s bons, want 9", q.Bons)
		}
	}

	// Without a hint the route falls through to the default tier like any
	// other suburb pair.
	res, err = s.Price(context.Background(), Request{Origin: "Versailles", Destination: "Versailles"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceDefault || res.DistanceKm != tariff.DefaultDistanceKm {
		t.Fatalf("distance = %v (%s), want default tier", res.DistanceKm, res.DistanceSource)
	}
}

func TestPriceResolvedDistance(t *testing.T) {
	resolver := &fixedResolver{km: 52.3}
	s := newTestService(resolver)

	res, err := s.Price(context.Background(), Request{Origin: "Versailles", Destination: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceResolved || res.DistanceKm != 52.3 {
		t.Fatalf("distance = %v (%s), want 52.3 (resolved)", res.DistanceKm, res.DistanceSource)
	}
}

func TestPriceDefaultTierFallback(t *testing.T) {
	resolver := &fixedResolver{err: route.ErrNoRoute}
	s := newTestService(resolver)

	res, err := s.Price(context.Background(), Request{Origin: "Versailles", Destination: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceDefault || res.DistanceKm != tariff.DefaultDistanceKm {
		t.Fatalf("distance = %v (%s), want default tier", res.DistanceKm, res.DistanceSource)
	}

	// Deterministic: the fallback never depends on resolver state.
	again, err := s.Price(context.Background(), Request{Origin: "Versailles", Destination: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	if again.DistanceKm != res.DistanceKm {
		t.Fatal("fallback distance drifted between calls")
	}
}

func TestPriceSingleEndpoint(t *testing.T) {
	s := newTestService(nil)

	res, err := s.Price(context.Background(), Request{Origin: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DistanceSource != DistanceExempt {
		t.Fatalf("single-endpoint lookup should not bill distance, got %s", res.DistanceSource)
	}
	for _, q := range res.Quotes {
		if q.Formula == tariff.FormulaExpress && q.PickupMilliBons != 27*tariff.MilliBons {
			t.Fatalf("Melun Express pickup = %d, want 27 bons", q.PickupMilliBons)
		}
	}
}

func TestPriceGenerationAdvances(t *testing.T) {
	s := newTestService(nil)

	first, err := s.Price(context.Background(), Request{Origin: "Paris", Destination: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Price(context.Background(), Request{Origin: "Paris", Destination: "Melun"})
	if err != nil {
		t.Fatal(err)
	}
	if second.Generation != first.Generation+1 {
		t.Fatalf("generations %d then %d", first.Generation, second.Generation)
	}
	if s.Generation() != second.Generation {
		t.Fatalf("service generation %d, result %d", s.Generation(), second.Generation)
	}
}
