package middleware

import (
	"net/http"

	"github.com/iho/fxoffice/internal/domain"
)

const (
	// ActorIDHeader carries the acting user's identifier.
	ActorIDHeader = "X-Actor-Id"
	// ActorNameHeader carries the acting user's display name.
	ActorNameHeader = "X-Actor-Name"
)

// Actor extracts the acting user from request headers and attaches it to
// the context for audit trails. Authentication itself happens upstream;
// the service only records who acted.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ActorIDHeader)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor := domain.Actor{
			ID:   id,
			Name: r.Header.Get(ActorNameHeader),
		}
		next.ServeHTTP(w, r.WithContext(domain.ContextWithActor(r.Context(), actor)))
	})
}
