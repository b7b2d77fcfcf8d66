package http

import (
	"context"
	"log/slog"

	"github.com/julienschmidt/httprouter"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// pathParam reads a named route parameter stored by the router.
func pathParam(ctx context.Context, name string) string {
	return httprouter.ParamsFromContext(ctx).ByName(name)
}
