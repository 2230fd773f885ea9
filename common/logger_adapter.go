package common

import (
	"fmt"

	"go-rbac-admin/pkg/log"
)

// Logger is the key/value logging surface of packages that do not import
// pkg/log, such as pkg/cache and the response helpers here.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

type kvLogger struct{ log log.Logger }

// NewLoggerAdapter exposes l through the key/value Logger.
func NewLoggerAdapter(l log.Logger) Logger { return kvLogger{log: l} }

func (k kvLogger) Info(msg string, kv ...any)  { k.log.Info(msg, pairs(kv)...) }
func (k kvLogger) Error(msg string, kv ...any) { k.log.Error(msg, pairs(kv)...) }
func (k kvLogger) Debug(msg string, kv ...any) { k.log.Debug(msg, pairs(kv)...) }
func (k kvLogger) Warn(msg string, kv ...any)  { k.log.Warn(msg, pairs(kv)...) }

// pairs drops a trailing key that has no value.
func pairs(kv []any) []log.Field {
	fields := make([]log.Field, 0, len(kv)/2)
	for i := 1; i < len(kv); i += 2 {
		key, ok := kv[i-1].(string)
		if !ok {
			key = fmt.Sprint(kv[i-1])
		}
		fields = append(fields, log.Any(key, kv[i]))
	}
	return fields
}
