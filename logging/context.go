package logging

import (
	"context"

	"github.com/google/uuid"
)

type debugKey struct{}

// EnableDebugMode returns a context under which CDebug* entries are written whatever the logger's
// level, tagged with a "trace" field holding key. An empty key gets a short random one.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = uuid.NewString()[:8]
	}
	return context.WithValue(ctx, debugKey{}, key)
}

// DebugKey returns the key given to EnableDebugMode, or "" when ctx is not in debug mode.
func DebugKey(ctx context.Context) string {
	key, _ := ctx.Value(debugKey{}).(string)
	return key
}

// IsDebugMode reports whether ctx was returned by EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugKey(ctx) != ""
}

func withTrace(ctx context.Context, keysAndValues []interface{}) []interface{} {
	key := DebugKey(ctx)
	if key == "" {
		return keysAndValues
	}
	return append([]interface{}{"trace", key}, keysAndValues...)
}
