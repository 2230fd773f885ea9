package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-rbac-admin/pkg/log"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger sends gorm's output to the service logger. The *Context log
// methods attach the request id and actor, so a slow or failing query can be
// traced back to the admin request that issued it.
type queryLogger struct {
	log   log.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger returns a gorm logger at level ("silent", "error", "warn" or
// "info"; anything else means "warn").
func NewQueryLogger(l log.Logger, level string, slow time.Duration) logger.Interface {
	return &queryLogger{log: l, level: parseLevel(level), slow: slow}
}

func parseLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (q *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *q
	c.level = level
	return &c
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if q.level >= logger.Info {
		q.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if q.level >= logger.Warn {
		q.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if q.level >= logger.Error {
		q.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace logs one executed statement. A missing row is an expected outcome
// for lookups and is not treated as a failure.
func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	fields := func() []log.Field {
		sql, rows := fc()
		return []log.Field{log.String("sql", sql), log.Int64("rows", rows), log.Duration("elapsed", elapsed)}
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= logger.Error:
		q.log.ErrorContext(ctx, "query failed", append(fields(), log.Error(err))...)
	case q.slow > 0 && elapsed > q.slow && q.level >= logger.Warn:
		q.log.WarnContext(ctx, "slow query", append(fields(), log.Duration("threshold", q.slow))...)
	case q.level >= logger.Info:
		q.log.DebugContext(ctx, "query", fields()...)
	}
}
