package util

import (
	"context"
)

type key string

const (
	runIDKey    = key("run-id")
	activityKey = key("activity")
)

// FieldsFromContext collects the values this package stores in a context.
type FieldsFromContext struct{}

// Fields returns a map of the key-value pairs that this library has set into `context`.
func (f *FieldsFromContext) Fields(ctx context.Context) map[string]interface{} {
	mapFields := make(map[string]interface{})
	mapFields["run_id"] = GetRunID(ctx)
	if activity := GetActivity(ctx); activity != "" {
		mapFields["activity"] = activity
	}

	return mapFields
}

// WithActivity returns a context tagged with the name of the engine activity
// (ingestion, matching) running with it.
func WithActivity(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, activityKey, name)
}

// GetActivity returns the activity name from context
// will return empty string if not present
func GetActivity(ctx context.Context) string {
	name, _ := ctx.Value(activityKey).(string)
	return name
}
