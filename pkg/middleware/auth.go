package middleware

import (
	"context"
	"net/http"
	"strings"

	"clinicbook/pkg/auth"
	httputil "clinicbook/pkg/http"
	"clinicbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const actorKey contextKey = "actor"

// RequireAuth verifies the Bearer access token and stores the acting
// identity in the request context. Role and ownership checks stay in
// the services, which receive the actor explicitly.
func RequireAuth(tm *auth.TokenManager) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			header := r.Header.Get("Authorization")
			if header == "" {
				_ = httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error: "Authorization header is required",
				})
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				_ = httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error: "Authorization header must use the Bearer scheme",
				})
				return
			}

			actor, err := tm.VerifyAccess(strings.TrimSpace(token))
			if err != nil {
				_ = httputil.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// ActorFromContext returns the authenticated actor placed by
// RequireAuth. The second return is false on unauthenticated requests.
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(model.Actor)
	return actor, ok
}
