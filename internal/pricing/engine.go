// Package pricing computes courier quotes from city pickup charges and the
// active tariff parameters.
package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/coursio/backend-pricing/internal/tariff"
)

// ErrInvalidRoute is returned when the request does not identify a route,
// for example when both endpoints are blank.
var ErrInvalidRoute = errors.New("invalid route")

// Quote is the price of one formula for a route. Monetary fields are
// decimals derived from exact integer arithmetic, so recomputing the same
// inputs always yields byte-identical values.
type Quote struct {
	Formula   tariff.Formula  `json:"formula"`
	Label     string          `json:"label"`
	Bons      decimal.Decimal `json:"bons"`
	Euros     decimal.Decimal `json:"euros"`
	Available bool            `json:"available"`

	// PickupMilliBons and SupplementMilliBons expose the components in
	// milli-bons for auditing.
	PickupMilliBons     int64 `json:"pickupMilliBons"`
	SupplementMilliBons int64 `json:"supplementMilliBons"`
}

// Compute prices one formula. The pickup charge is the higher of the two
// endpoint charges for that formula. The kilometre supplement applies only
// when neither endpoint is Paris; intra-Paris and Paris-suburb routes pay
// the pickup charge alone. immediate marks a pickup requested for right
// now, which rules out the scheduled-only formulas.
func Compute(f tariff.Formula, origin, dest tariff.CityRate, distanceKm float64, cfg tariff.Config, immediate bool) Quote {
	pickup := origin.Rates.For(f)
	if d := dest.Rates.For(f); d > pickup {
		pickup = d
	}

	var supplement int64
	if !tariff.IsParis(origin.City) && !tariff.IsParis(dest.City) && distanceKm > 0 {
		supplement = int64(math.Round(distanceKm * float64(cfg.SupplementPerKmMilliBons)))
	}

	totalMilli := pickup + supplement
	totalCents := (totalMilli*cfg.BonValueCents + 500) / 1000

	return Quote{
		Formula:             f,
		Label:               f.Label(),
		Bons:                decimal.New(totalMilli, -3),
		Euros:               decimal.New(totalCents, -2),
		Available:           !immediate || f.AvailableForImmediate(),
		PickupMilliBons:     pickup,
		SupplementMilliBons: supplement,
	}
}

// ComputeAll prices every formula for the route, in display order.
func ComputeAll(origin, dest tariff.CityRate, distanceKm float64, cfg tariff.Config, immediate bool) []Quote {
	formulas := tariff.Formulas()
	out := make([]Quote, 0, len(formulas))
	for _, f := range formulas {
		out = append(out, Compute(f, origin, dest, distanceKm, cfg, immediate))
	}
	return out
}
