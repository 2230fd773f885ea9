package log

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Field = zap.Field

// Logger is the structured logger handed to every layer of the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// The Context variants append the request id, actor and route action
	// carried by ctx.
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)

	Sync() error
}

func String(key, value string) Field                 { return zap.String(key, value) }
func Int(key string, value int) Field                { return zap.Int(key, value) }
func Int64(key string, value int64) Field            { return zap.Int64(key, value) }
func Bool(key string, value bool) Field              { return zap.Bool(key, value) }
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }
func Error(err error) Field                          { return zap.Error(err) }
func Any(key string, value interface{}) Field        { return zap.Any(key, value) }

// Entity fields share one key per kind across packages.
func UserID(id string) Field    { return zap.String("user_id", id) }
func RoleID(id string) Field    { return zap.String("role_id", id) }
func ModuleID(id string) Field  { return zap.String("module_id", id) }
func Module(name string) Field  { return zap.String("module", name) }
func Action(id string) Field    { return zap.String("action", id) }
func RequestID(id string) Field { return zap.String("request_id", id) }
func ActorID(id string) Field   { return zap.String("actor_id", id) }

type ctxKey uint8

const (
	requestIDKey ctxKey = iota
	actorIDKey
	actionKey
)

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithActor records the authenticated user making the request.
func ContextWithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorIDKey, userID)
}

// ContextWithAction records the route action being guarded.
func ContextWithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKey, action)
}

func contextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	fields := make([]Field, 0, 3)
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		fields = append(fields, RequestID(id))
	}
	if id, ok := ctx.Value(actorIDKey).(string); ok && id != "" {
		fields = append(fields, ActorID(id))
	}
	if action, ok := ctx.Value(actionKey).(string); ok && action != "" {
		fields = append(fields, Action(action))
	}
	return fields
}

var defaultLogger Logger

func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// Default returns the logger installed by SetDefaultLogger, or a no-op
// logger before one is installed.
func Default() Logger {
	if defaultLogger == nil {
		return NewNopLogger()
	}
	return defaultLogger
}
