package logging

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type contextKey struct{}

// ContextWithLogger stores l in ctx; Ctx will prefer it over the global logger.
//
//nolint:gocritic // zerolog.Logger is meant to be passed by value
func ContextWithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Ctx returns the logger for ctx with request_id attached when the request
// went through chi's RequestID middleware.
func Ctx(ctx context.Context) *zerolog.Logger {
	l, ok := ctx.Value(contextKey{}).(zerolog.Logger)
	if !ok {
		l = Logger()
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		l = l.With().Str("request_id", reqID).Logger()
	}
	return &l
}
