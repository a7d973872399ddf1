package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// traceLookup opens a cache span when the context carries a Sentry hub. The
// returned func records whether the lookup hit and finishes the span.
func traceLookup(ctx context.Context, backend, key string) func(hit bool) {
	if sentry.GetHubFromContext(ctx) == nil {
		return func(bool) {}
	}

	span := sentry.StartSpan(ctx, "db.cache")
	span.Description = "cache." + backend + ".get"
	span.SetData("cache.key", key)

	return func(hit bool) {
		span.SetData("cache.hit", hit)
		span.Status = sentry.SpanStatusOK
		span.Finish()
	}
}
