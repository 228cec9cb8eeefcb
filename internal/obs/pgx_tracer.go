package obs

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type ctxQueryKey struct{}

type queryInfo struct {
	sql   string
	start time.Time
}

// PGXTracer implements pgx.QueryTracer and logs database interactions.
// Successful queries log at debug so production defaults stay quiet.
type PGXTracer struct {
	Logger zerolog.Logger
}

// TraceQueryStart records the statement and start time on the context.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, ctxQueryKey{}, queryInfo{sql: data.SQL, start: time.Now()})
}

// TraceQueryEnd logs the statement outcome with its duration.
func (t PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	info, ok := ctx.Value(ctxQueryKey{}).(queryInfo)
	if !ok {
		return
	}
	evt := t.Logger.Debug()
	if data.Err != nil {
		evt = t.Logger.Error().Err(data.Err)
	}
	evt.
		Str("sql", truncateSQL(info.sql)).
		Int64("duration_ms", time.Since(info.start).Milliseconds()).
		Msg("pgx_query")
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > 300 {
		return trimmed[:300] + "..."
	}
	return trimmed
}
