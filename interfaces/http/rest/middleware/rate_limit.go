package middleware

import (
	"net/http"

	"ideabox/pkg/auth"
	"ideabox/pkg/common"
	pkgerrors "ideabox/pkg/errors"

	"go.uber.org/zap"
)

// RateLimit throttles mutating requests per actor, falling back to the client
// IP when no actor is present. Reads pass through. A limiter failure lets the
// request through.
func RateLimit(limiter auth.RateLimiter, requestsPerMinute int, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := "ip:" + getClientIP(r)
			if actor := common.ActorFrom(r.Context()); !actor.IsZero() {
				key = "user:" + actor.ID
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("Rate limiter error", zap.String("key", key), zap.Error(err))
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(requestsPerMinute, "minute"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
