package ctx

import (
	"github.com/valyala/fasthttp"

	"webpulse/internal/tracking"
)

const (
	RequestKindKey = "requestKind"
	ProjectKey     = "project"
)

func SetRequestKind(ctx *fasthttp.RequestCtx, kind tracking.RequestKind) {
	ctx.SetUserValue(RequestKindKey, kind)
}

// RequestKindFromCtx returns the kind set by the router, or
// tracking.KindNotFound when the request matched no route.
func RequestKindFromCtx(ctx *fasthttp.RequestCtx) tracking.RequestKind {
	v, ok := ctx.UserValue(RequestKindKey).(tracking.RequestKind)
	if !ok {
		return tracking.KindNotFound
	}
	return v
}

func SetProject(ctx *fasthttp.RequestCtx, token string) {
	ctx.SetUserValue(ProjectKey, token)
}

func ProjectFromCtx(ctx *fasthttp.RequestCtx) (string, bool) {
	v := ctx.UserValue(ProjectKey)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
