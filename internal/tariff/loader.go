package tariff

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// MetadataSource fetches the raw tariff parameters for the current tenant.
// *Store implements it.
type MetadataSource interface {
	Metadata(ctx context.Context) (map[string]string, error)
}

// Loader caches the active tariff configuration. Concurrent callers share a
// single underlying fetch, and a failed fetch leaves the cache empty so the
// next call retries instead of serving a poisoned snapshot.
type Loader struct {
	Source MetadataSource
	// TTL bounds how long a snapshot is served before a reload. Zero means
	// cache forever until Invalidate.
	TTL time.Duration
	// Now is a test hook; defaults to time.Now.
	Now func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	cached   *Config
	loadedAt time.Time
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Load returns the cached snapshot when fresh, otherwise fetches, validates
// and caches a new one. The returned Config is a value: callers can never
// mutate the cached snapshot, and a reload never changes a snapshot already
// handed out.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	if l == nil || l.Source == nil {
		return Config{}, errors.New("tariff loader not configured")
	}
	l.mu.Lock()
	if l.cached != nil && (l.TTL <= 0 || l.now().Sub(l.loadedAt) < l.TTL) {
		cfg := *l.cached
		l.mu.Unlock()
		return cfg, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do("config", func() (any, error) {
		meta, err := l.Source.Metadata(ctx)
		if err != nil {
			return nil, err
		}
		cfg, err := ConfigFromMetadata(meta)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cached = &cfg
		l.loadedAt = l.now()
		l.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return Config{}, err
	}
	return v.(Config), nil
}

// Invalidate drops the cached snapshot. Called after tariff parameters are
// updated so the next quote sees them.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.loadedAt = time.Time{}
	l.mu.Unlock()
}
