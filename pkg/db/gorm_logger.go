package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/hourbid/pkg/logger"
)

const defaultSlowQuery = 500 * time.Millisecond

// queryLogger routes gorm diagnostics through the service logger. Failed and
// slow statements are reported; everything else stays at debug.
type queryLogger struct {
	logg      *logger.Logger
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

func newQueryLogger(logg *logger.Logger, slowQuery time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	if slowQuery <= 0 {
		slowQuery = defaultSlowQuery
	}
	return &queryLogger{logg: logg, level: gormlogger.Warn, slowQuery: slowQuery}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Debug(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, "gorm error", fmt.Errorf(msg, args...))
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && q.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		statement, rows := fc()
		q.logg.Error(q.fields(ctx, statement, rows, elapsed), "query failed", err)
	case elapsed > q.slowQuery && q.level >= gormlogger.Warn:
		statement, rows := fc()
		q.logg.Warn(q.fields(ctx, statement, rows, elapsed), "slow query")
	case q.level >= gormlogger.Info:
		statement, rows := fc()
		q.logg.Debug(q.fields(ctx, statement, rows, elapsed), "query")
	}
}

func (q *queryLogger) fields(ctx context.Context, statement string, rows int64, elapsed time.Duration) context.Context {
	return q.logg.WithFields(ctx, map[string]any{
		"sql":         statement,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
}
