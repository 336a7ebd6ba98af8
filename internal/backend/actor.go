package backend

import "context"

// ActorHeader names the portal user on whose behalf a backend call is made. It is an
// audit label only; the call is authenticated with the service token.
const ActorHeader = "X-MiSight-User"

type actorKey struct{}

// WithActor attaches the signed-in username to ctx
func WithActor(ctx context.Context, username string) context.Context {
	if username == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, username)
}

// ActorFrom returns the username carried by ctx
func ActorFrom(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(actorKey{}).(string)
	return u, ok && u != ""
}
