package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/servicehub-backend/api/responses"
	pkgAuth "github.com/angelmondragon/servicehub-backend/pkg/auth"
	"github.com/angelmondragon/servicehub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

var errMissingCredentials = errors.New("missing credentials")

// bearerToken extracts the token from an Authorization header. The "Bearer"
// scheme is optional so raw tokens from internal tooling still work.
func bearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	switch {
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1], nil
	case len(parts) == 1 && !strings.EqualFold(parts[0], "bearer"):
		return parts[0], nil
	}
	return "", errMissingCredentials
}

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, err.Error()))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			caller := Caller{UserID: claims.UserID.String(), Role: string(claims.Role)}
			ctx := WithCaller(r.Context(), caller)
			if logg != nil {
				ctx = logg.WithUserID(ctx, caller.UserID)
				ctx = logg.WithActorRole(ctx, caller.Role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
