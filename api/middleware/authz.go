package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/authz"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RequireAdmin admits only users whose database role is admin.
func RequireAdmin(a authz.Authorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authz.RequireAdmin(r.Context(), a, UserIDFromContext(r.Context())); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrAdmin admits the user named by the URL parameter param, or an admin.
func RequireSelfOrAdmin(a authz.Authorizer, param string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, err := validators.ParsePathID(r, param)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := authz.RequireSelfOrAdmin(r.Context(), a, UserIDFromContext(r.Context()), ownerID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
