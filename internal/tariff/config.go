package tariff

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrCityNotFound is returned when neither the database nor the embedded
	// grid knows the requested city.
	ErrCityNotFound = errors.New("city not found in pricing grid")
	// ErrInvalidConfig is returned when loaded tariff parameters are
	// malformed. Calculations must fail rather than fall back to a zero
	// rate, which would under-price orders.
	ErrInvalidConfig = errors.New("invalid tariff configuration")
	// ErrConfigUnavailable is returned when the configuration source cannot
	// be reached. The loader cache stays empty so the next call retries.
	ErrConfigUnavailable = errors.New("tariff configuration unavailable")
)

// Metadata keys recognised in the tariff_metadata table.
const (
	MetaBonValueEUR       = "bon_value_eur"
	MetaSupplementPerKm   = "supplement_per_km_bons"
	MetaDefaultDistanceKm = "default_distance_km"
)

// Defaults applied when a metadata key is absent.
const (
	DefaultBonValueCents       int64   = 550
	DefaultSupplementMilliBons int64   = 100 // 0.1 bons per km
	DefaultDistanceKm          float64 = 8
)

// Config is an immutable snapshot of the tariff parameters. Loads always
// produce a fresh value; a snapshot handed to a calculation is never
// mutated afterwards, so reloads cannot affect computations in flight.
type Config struct {
	// BonValueCents is the value of one bon in euro cents.
	BonValueCents int64
	// SupplementPerKmMilliBons is the kilometre supplement applied to
	// suburb-to-suburb routes, in milli-bons per km.
	SupplementPerKmMilliBons int64
	// DefaultDistanceKm is the distance tier assumed when a route distance
	// cannot be resolved.
	DefaultDistanceKm float64
}

// DefaultConfig returns the built-in parameters (1 bon = 5.50 EUR,
// 0.1 bons/km, 8 km default tier).
func DefaultConfig() Config {
	return Config{
		BonValueCents:            DefaultBonValueCents,
		SupplementPerKmMilliBons: DefaultSupplementMilliBons,
		DefaultDistanceKm:        DefaultDistanceKm,
	}
}

// Validate rejects snapshots whose rate fields would produce nonsense
// prices.
func (c Config) Validate() error {
	if c.BonValueCents <= 0 {
		return fmt.Errorf("%w: bon value must be positive, got %d cents", ErrInvalidConfig, c.BonValueCents)
	}
	if c.SupplementPerKmMilliBons < 0 {
		return fmt.Errorf("%w: negative kilometre supplement", ErrInvalidConfig)
	}
	if c.DefaultDistanceKm < 0 {
		return fmt.Errorf("%w: negative default distance", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromMetadata builds a snapshot from tariff_metadata key/value pairs.
// Missing keys take the documented defaults; present-but-malformed values
// fail with ErrInvalidConfig.
func ConfigFromMetadata(meta map[string]string) (Config, error) {
	cfg := DefaultConfig()
	if raw, ok := lookupMeta(meta, MetaBonValueEUR); ok {
		eur, err := strconv.ParseFloat(raw, 64)
		if err != nil || eur <= 0 {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, MetaBonValueEUR, raw)
		}
		cfg.BonValueCents = int64(math.Round(eur * 100))
	}
	if raw, ok := lookupMeta(meta, MetaSupplementPerKm); ok {
		bons, err := strconv.ParseFloat(raw, 64)
		if err != nil || bons < 0 {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, MetaSupplementPerKm, raw)
		}
		cfg.SupplementPerKmMilliBons = int64(math.Round(bons * float64(MilliBons)))
	}
	if raw, ok := lookupMeta(meta, MetaDefaultDistanceKm); ok {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil || km < 0 {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, MetaDefaultDistanceKm, raw)
		}
		cfg.DefaultDistanceKm = km
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookupMeta(meta map[string]string, key string) (string, bool) {
	raw, ok := meta[key]
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}
