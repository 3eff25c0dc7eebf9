package domain

import "context"

// Actor is the authenticated identity performing a mutating call. It is
// supplied by the API collaborator; the engine only records it for audit.
type Actor struct {
	ID   string
	Name string
}

type actorContextKey struct{}

// ContextWithActor attaches the acting user to the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// ActorID returns the acting user's id, or "system" when none is set.
func ActorID(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.ID != "" {
		return actor.ID
	}
	return "system"
}
