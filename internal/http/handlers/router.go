package handlers

import (
	"fmt"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"webpulse/internal/config"
	httpctx "webpulse/internal/http/ctx"
	"webpulse/internal/tracking"
)

// Routes holds the handler for each routed request kind.
type Routes struct {
	ClientScript tracking.Handler
	Track        tracking.Handler
	Root         tracking.Handler
	Stats        tracking.Handler
}

// NewRouter maps method+path onto request kinds. Anything else, including
// a known path with the wrong method, is a plain 404.
func NewRouter(routes Routes, log zerolog.Logger) *router.Router {
	InitPrometheusMetrics()

	r := router.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = false
	r.HandleOPTIONS = false

	r.GET("/client.js", dispatch(tracking.KindClientScript, routes.ClientScript, log))
	r.POST("/track", dispatch(tracking.KindTrack, routes.Track, log))
	r.GET("/", dispatch(tracking.KindRoot, routes.Root, log))
	r.GET("/stats", dispatch(tracking.KindStats, routes.Stats, log))

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("Not Found")
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, v interface{}) {
		log.Error().Str("panic", fmt.Sprint(v)).Bytes("path", ctx.Path()).Msg("error while processing request")
		internalError(ctx)
	}

	return r
}

// dispatch converts the fasthttp request into a tracking.Request, runs h
// and writes the outcome. Errors are logged once here and become a
// generic 500.
func dispatch(kind tracking.RequestKind, h tracking.Handler, log zerolog.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		httpctx.SetRequestKind(ctx, kind)

		req := tracking.Request{
			Kind:      kind,
			Origin:    string(ctx.Request.Header.Peek(fasthttp.HeaderOrigin)),
			UserAgent: string(ctx.UserAgent()),
		}
		switch kind {
		case tracking.KindClientScript:
			req.TrackID = string(ctx.QueryArgs().Peek("trackId"))
		case tracking.KindTrack:
			req.Body = append([]byte(nil), ctx.PostBody()...)
		}

		out, err := h.Handle(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("kind", kind.String()).Msg("error while processing request")
			internalError(ctx)
			observe(kind, tracking.Outcome{}, fasthttp.StatusInternalServerError, time.Since(start))
			return
		}

		if out.Project != "" {
			httpctx.SetProject(ctx, out.Project)
		}
		writeOutcome(ctx, out)
		observe(kind, out, out.Status, time.Since(start))
	}
}

func writeOutcome(ctx *fasthttp.RequestCtx, out tracking.Outcome) {
	for k, v := range config.CommonHeaders {
		ctx.Response.Header.Set(k, v)
	}
	if out.ContentType != "" {
		ctx.SetContentType(out.ContentType)
	}
	ctx.SetStatusCode(out.Status)
	ctx.SetBody(out.Body)
}

func internalError(ctx *fasthttp.RequestCtx) {
	ctx.Response.Reset()
	ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	ctx.SetBodyString("Internal Server Error")
}
