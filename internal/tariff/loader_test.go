package tariff

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubSource struct {
	mu    sync.Mutex
	meta  map[string]string
	err   error
	delay time.Duration
	calls atomic.Int64
}

func (s *stubSource) Metadata(ctx context.Context) (map[string]string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string, len(s.meta))
	for k, v := range s.meta {
		out[k] = v
	}
	return out, nil
}

func (s *stubSource) set(meta map[string]string, err error) {
	s.mu.Lock()
	s.meta, s.err = meta, err
	s.mu.Unlock()
}

func TestLoaderCachesWithinTTL(t *testing.T) {
	src := &stubSource{meta: map[string]string{MetaBonValueEUR: "5.50"}}
	now := time.Now()
	l := &Loader{Source: src, TTL: 5 * time.Minute, Now: func() time.Time { return now }}

	first, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.BonValueCents != 550 {
		t.Fatalf("BonValueCents = %d", first.BonValueCents)
	}
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}

	now = now.Add(6 * time.Minute)
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected a refetch after TTL, got %d fetches", got)
	}
}

func TestLoaderSingleFlight(t *testing.T) {
	src := &stubSource{meta: map[string]string{}, delay: 50 * time.Millisecond}
	l := &Loader{Source: src, TTL: time.Minute}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background()); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("overlapping loads should share one fetch, got %d", got)
	}
}

func TestLoaderFailureNotCached(t *testing.T) {
	src := &stubSource{err: ErrConfigUnavailable}
	l := &Loader{Source: src, TTL: time.Minute}

	if _, err := l.Load(context.Background()); !errors.Is(err, ErrConfigUnavailable) {
		t.Fatalf("got %v, want ErrConfigUnavailable", err)
	}
	src.set(map[string]string{MetaBonValueEUR: "6"}, nil)
	cfg, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load after recovery: %v", err)
	}
	if cfg.BonValueCents != 600 {
		t.Fatalf("expected the retry to hit the source, got %+v", cfg)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestLoaderMalformedMetadata(t *testing.T) {
	src := &stubSource{meta: map[string]string{MetaBonValueEUR: "free"}}
	l := &Loader{Source: src}
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestLoaderInvalidate(t *testing.T) {
	src := &stubSource{meta: map[string]string{MetaBonValueEUR: "5.50"}}
	l := &Loader{Source: src}

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	src.set(map[string]string{MetaBonValueEUR: "7"}, nil)
	if cfg, _ := l.Load(context.Background()); cfg.BonValueCents != 550 {
		t.Fatalf("cache should still serve the old snapshot, got %+v", cfg)
	}
	l.Invalidate()
	cfg, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BonValueCents != 700 {
		t.Fatalf("expected reload after Invalidate, got %+v", cfg)
	}
}
