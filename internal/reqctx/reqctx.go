package reqctx

import "context"

type ctxKey string

const (
	keyRID       ctxKey = "feed_rid"
	keyProjectID ctxKey = "feed_project_id"
)

// WithRID stores the correlation id for digest logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithProjectID stores the project id for digest logs.
func WithProjectID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, keyProjectID, id)
}

// ProjectID returns the project id if present.
func ProjectID(ctx context.Context) uint64 {
	v, _ := ctx.Value(keyProjectID).(uint64)
	return v
}
