package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ideabox/application/ports"
	"ideabox/domain/core/valueobjects"
	"ideabox/pkg/auth"
	"ideabox/pkg/common"
	pkgerrors "ideabox/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate verifies the bearer token and stores the actor in the request
// context. Roles from the token are unioned with roles granted in the
// directory; roles may be nil.
func Authenticate(validator *auth.JWTValidator, roles ports.RoleDirectory, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthenticatedError("missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", getClientIP(r)),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, pkgerrors.NewUnauthenticatedError(tokenMessage(err)))
				return
			}
			if claims.UserID() == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthenticatedError("token carries no subject"))
				return
			}

			granted := valueobjects.ParseRoleSet(claims.Roles...)
			if roles != nil {
				extra, err := roles.RolesOf(r.Context(), claims.UserID())
				if err != nil {
					logger.Warn("Role directory lookup failed",
						zap.String("user_id", claims.UserID()),
						zap.Error(err),
					)
				} else {
					granted = granted.Union(extra)
				}
			}

			actor := valueobjects.NewActor(claims.UserID(), granted)
			logger.Debug("Request authenticated",
				zap.String("user_id", actor.ID),
				zap.Strings("roles", granted.Strings()),
				zap.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(common.WithActor(r.Context(), actor)))
		})
	}
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// extractToken reads the bearer token from the Authorization header or the
// auth_token cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
