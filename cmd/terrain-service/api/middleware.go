package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// adminClaims is the minimal claim set checked by AdminMiddleware: the demo
// only needs to know the caller holds a validly signed token, not a full
// user identity.
type adminClaims struct {
	jwt.RegisteredClaims
}

// AdminMiddleware gates /admin/regenerate on a bearer token signed with
// signingKey, following the teacher's AuthMiddleware (Authorization header
// parsing, respondError on rejection, structured request logging).
func AdminMiddleware(signingKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Logger()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug().Msg("missing authorization header")
				respondError(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn().Msg("invalid authorization format")
				respondError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims := &adminClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				logger.Warn().Err(err).Msg("admin token validation failed")
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
