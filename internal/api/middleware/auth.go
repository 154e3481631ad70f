package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/scoutbook/internal/api/apierr"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/session"
)

type contextKey string

const userContextKey contextKey = "user"

// RequireSession rejects requests unless the session is authenticated,
// and puts the signed-in identity on the request context
func RequireSession(controller *session.Controller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := controller.Snapshot()
			if !snap.IsAuthenticated || snap.CurrentUser == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, snap.CurrentUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests from non-admin users. Apply after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		if !user.IsAdmin {
			apierr.WriteError(w, apierr.NewForbiddenError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser returns the signed-in identity from the request context
func GetUser(ctx context.Context) *model.Identity {
	user, _ := ctx.Value(userContextKey).(*model.Identity)
	return user
}
