package invoke

import "context"

type builderContextKey struct{}
type replayContextKey struct{}

func withBuilder(ctx context.Context, b *Builder) context.Context {
	return context.WithValue(ctx, builderContextKey{}, b)
}

func builderFromContext(ctx context.Context) (*Builder, bool) {
	b, ok := ctx.Value(builderContextKey{}).(*Builder)
	return b, ok
}

func withReplayContext(ctx context.Context, rc *ReplayContext) context.Context {
	return context.WithValue(ctx, replayContextKey{}, rc)
}

func replayContextFromContext(ctx context.Context) (*ReplayContext, bool) {
	rc, ok := ctx.Value(replayContextKey{}).(*ReplayContext)
	return rc, ok
}
