// Package rbac guards routes by the role carried in the auth token.
package rbac

import (
	"net/http"

	"github.com/adegaexpress/adega/pkg/middleware"
	"github.com/adegaexpress/adega/pkg/response"
)

// HasRole lets through only tokens whose role is listed. It must run
// after middleware.Authenticate; without claims it answers 401.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			if !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
