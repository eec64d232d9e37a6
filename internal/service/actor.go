package service

import "context"

type actorKey struct{}

// WithActor attaches the uid of the admin performing an action; it ends up in audit events.
func WithActor(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, actorKey{}, uid)
}

// ActorFrom returns the admin uid attached by WithActor, or "unknown".
func ActorFrom(ctx context.Context) string {
	if uid, ok := ctx.Value(actorKey{}).(string); ok && uid != "" {
		return uid
	}
	return "unknown"
}
