package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteTags are the low-cardinality labels attached to request metrics, spans
// and logs.
type RouteTags struct {
	Pattern     string
	CartSession string
}

type routeTagsKey struct{}

// WithRouteTags pins tags on ctx. Handlers served outside a chi router use it
// to report a pattern.
func WithRouteTags(ctx context.Context, tags RouteTags) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routeTagsKey{}, tags)
}

// RouteTagsFor resolves the tags of r. Pinned tags win; missing fields are
// filled from chi's routing context, which is complete once the handler ran.
func RouteTagsFor(r *http.Request) RouteTags {
	ctx := r.Context()
	tags, _ := ctx.Value(routeTagsKey{}).(RouteTags)
	if rc := chi.RouteContext(ctx); rc != nil {
		if tags.Pattern == "" {
			tags.Pattern = rc.RoutePattern()
		}
		if tags.CartSession == "" {
			tags.CartSession = rc.URLParam("session")
		}
	}
	return tags
}
