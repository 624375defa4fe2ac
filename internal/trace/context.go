package trace

import "context"

type ctxKey int

const turnIDKey ctxKey = 0

// WithTurnID returns a context carrying the given turn ID.
func WithTurnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, turnIDKey, id)
}

// TurnIDFromContext extracts the turn ID, if one was set.
func TurnIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(turnIDKey).(string)
	return id, ok
}
