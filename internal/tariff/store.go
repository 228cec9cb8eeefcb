package tariff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursio/backend-pricing/internal/common"
)

// Store serves city pricing rows and tariff metadata. Lookup order for a
// city: in-process map, Redis, database, embedded grid. The database is the
// source of truth when present; the embedded grid keeps pricing available
// when it is not.
type Store struct {
	db    *pgxpool.Pool
	cache *Cache

	mu  sync.RWMutex
	mem map[string]CityRate
}

// NewStore constructs a store. Both the pool and the cache may be nil.
func NewStore(db *pgxpool.Pool, cache *Cache) *Store {
	return &Store{db: db, cache: cache, mem: make(map[string]CityRate)}
}

func cityCacheKey(name string) string { return "tariff:city:" + name }

// CityRates resolves the pickup charges for a city.
func (s *Store) CityRates(ctx context.Context, city string) (CityRate, error) {
	name := NormalizeCity(city)
	if name == "" {
		return CityRate{}, fmt.Errorf("%w: blank city", ErrCityNotFound)
	}

	s.mu.RLock()
	if row, ok := s.mem[name]; ok {
		s.mu.RUnlock()
		return row, nil
	}
	s.mu.RUnlock()

	var cached CityRate
	if ok, err := s.cache.GetJSON(ctx, cityCacheKey(name), &cached); err == nil && ok {
		s.remember(cached)
		return cached, nil
	}

	if s.db != nil {
		row, err := s.queryCity(ctx, name)
		if err == nil {
			s.remember(row)
			_ = s.cache.SetJSON(ctx, cityCacheKey(name), row)
			return row, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return CityRate{}, err
		}
	}

	if row, ok := LookupGrid(name); ok {
		s.remember(row)
		return row, nil
	}
	return CityRate{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
}

// queryCity tries the normalised name, then the name with hyphens relaxed to
// spaces, since older rows were imported with spaces.
func (s *Store) queryCity(ctx context.Context, name string) (CityRate, error) {
	const q = `
SELECT city_name, zip_code, lat, lng,
       price_normal, price_express, price_urgence, price_vl_normal, price_vl_express
FROM city_pricing
WHERE city_name ILIKE $1
LIMIT 1`
	row, err := scanCity(s.db.QueryRow(ctx, q, name))
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return CityRate{}, err
	}
	return scanCity(s.db.QueryRow(ctx, q, strings.ReplaceAll(name, "-", " ")))
}

func scanCity(row pgx.Row) (CityRate, error) {
	var (
		out  CityRate
		zip  *string
		lat  *float64
		lng  *float64
		bons [5]float64
	)
	err := row.Scan(&out.City, &zip, &lat, &lng, &bons[0], &bons[1], &bons[2], &bons[3], &bons[4])
	if err != nil {
		return CityRate{}, err
	}
	out.City = NormalizeCity(out.City)
	if zip != nil {
		out.Zip = *zip
	}
	if lat != nil {
		out.Lat = *lat
	}
	if lng != nil {
		out.Lng = *lng
	}
	out.Rates = Rates{
		Normal:    toMilliBons(bons[0]),
		Express:   toMilliBons(bons[1]),
		Urgence:   toMilliBons(bons[2]),
		VLNormal:  toMilliBons(bons[3]),
		VLExpress: toMilliBons(bons[4]),
	}
	// Rows written outside UpsertCityRate can carry an inverted ladder.
	if !out.Rates.Ordered() {
		return CityRate{}, fmt.Errorf("%w: tier ladder violated for %s", ErrInvalidConfig, out.City)
	}
	return out, nil
}

func toMilliBons(bons float64) int64 {
	return int64(math.Round(bons * float64(MilliBons)))
}

func (s *Store) remember(row CityRate) {
	s.mu.Lock()
	s.mem[row.City] = row
	s.mu.Unlock()
}

// SearchCities returns up to limit cities matching the prefix, for
// autocompletion. Falls back to the embedded grid when no database is
// configured or the query fails.
func (s *Store) SearchCities(ctx context.Context, prefix string, limit int) ([]CityRate, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.db == nil {
		return SearchGrid(prefix, limit), nil
	}
	const q = `
SELECT city_name, zip_code, lat, lng,
       price_normal, price_express, price_urgence, price_vl_normal, price_vl_express
FROM city_pricing
WHERE city_name ILIKE $1 || '%' OR zip_code LIKE $2 || '%'
ORDER BY city_name
LIMIT $3`
	rows, err := s.db.Query(ctx, q, NormalizeCity(prefix), strings.TrimSpace(prefix), limit)
	if err != nil {
		return SearchGrid(prefix, limit), nil
	}
	defer rows.Close()
	var out []CityRate
	for rows.Next() {
		row, err := scanCity(rows)
		if errors.Is(err, ErrInvalidConfig) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return SearchGrid(prefix, limit), nil
	}
	return out, nil
}

// Preload loads every database row into the in-process map and Redis.
// Returns the number of rows warmed.
func (s *Store) Preload(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, nil
	}
	const q = `
SELECT city_name, zip_code, lat, lng,
       price_normal, price_express, price_urgence, price_vl_normal, price_vl_express
FROM city_pricing`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		row, err := scanCity(rows)
		if errors.Is(err, ErrInvalidConfig) {
			continue
		}
		if err != nil {
			return count, err
		}
		s.remember(row)
		_ = s.cache.SetJSON(ctx, cityCacheKey(row.City), row)
		count++
	}
	return count, rows.Err()
}

// Reset drops the in-process map, forcing fresh lookups.
func (s *Store) Reset() {
	s.mu.Lock()
	s.mem = make(map[string]CityRate)
	s.mu.Unlock()
}

func errNoDatabase() error {
	return common.NewAppError(common.CodePricingConfig,
		"tariff store has no database configured", http.StatusServiceUnavailable, nil)
}

// UpsertCityRate writes a grid row. The tier ladder must be ordered so a
// faster formula never costs less than a slower one.
func (s *Store) UpsertCityRate(ctx context.Context, row CityRate) error {
	if s.db == nil {
		return errNoDatabase()
	}
	row.City = NormalizeCity(row.City)
	if row.City == "" {
		return fmt.Errorf("%w: blank city", ErrCityNotFound)
	}
	if !row.Rates.Ordered() {
		return fmt.Errorf("%w: tier ladder violated for %s", ErrInvalidConfig, row.City)
	}
	const q = `
INSERT INTO city_pricing (city_name, zip_code, lat, lng,
    price_normal, price_express, price_urgence, price_vl_normal, price_vl_express)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (city_name) DO UPDATE SET
    zip_code = EXCLUDED.zip_code,
    lat = EXCLUDED.lat,
    lng = EXCLUDED.lng,
    price_normal = EXCLUDED.price_normal,
    price_express = EXCLUDED.price_express,
    price_urgence = EXCLUDED.price_urgence,
    price_vl_normal = EXCLUDED.price_vl_normal,
    price_vl_express = EXCLUDED.price_vl_express,
    updated_at = now()`
	_, err := s.db.Exec(ctx, q, row.City, row.Zip, row.Lat, row.Lng,
		fromMilliBons(row.Rates.Normal), fromMilliBons(row.Rates.Express), fromMilliBons(row.Rates.Urgence),
		fromMilliBons(row.Rates.VLNormal), fromMilliBons(row.Rates.VLExpress))
	if err != nil {
		return err
	}
	s.remember(row)
	return s.cache.SetJSON(ctx, cityCacheKey(row.City), row)
}

func fromMilliBons(milli int64) float64 {
	return float64(milli) / float64(MilliBons)
}

// Metadata returns the tariff_metadata table as a key/value map.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	if s.db == nil {
		return map[string]string{}, nil
	}
	rows, err := s.db.Query(ctx, `SELECT key, value FROM tariff_metadata`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	return meta, nil
}

const upsertMetadataSQL = `
INSERT INTO tariff_metadata (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// UpsertMetadata writes one tariff parameter.
func (s *Store) UpsertMetadata(ctx context.Context, key, value string) error {
	if s.db == nil {
		return errNoDatabase()
	}
	_, err := s.db.Exec(ctx, upsertMetadataSQL, strings.TrimSpace(key), strings.TrimSpace(value))
	return err
}

// UpsertMetadataAll writes a set of tariff parameters in one transaction so
// a failed write never leaves a partially applied snapshot behind.
func (s *Store) UpsertMetadataAll(ctx context.Context, values map[string]string) error {
	if s.db == nil {
		return errNoDatabase()
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for key, value := range values {
			if _, err := tx.Exec(ctx, upsertMetadataSQL, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return err
			}
		}
		return nil
	})
}
