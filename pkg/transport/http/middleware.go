// Package httptransport guards HTTP handlers with authorization decisions.
package httptransport

import (
	"context"
	"net/http"

	"github.com/snapfest/authz/pkg/policy"
)

// Decider is the slice of the authorization client the guard needs.
type Decider interface {
	UserContext(ctx context.Context, userID string) (*policy.UserContext, error)
	Can(ctx context.Context, actor *policy.UserContext, action policy.Action, resource policy.Resource) (bool, error)
}

// ActorResolver extracts the acting user's id from the request. Return an
// empty string for anonymous visitors.
type ActorResolver func(r *http.Request) string

// ResourceResolver maps the request to the action and resource it targets.
type ResourceResolver func(r *http.Request) (policy.Action, policy.Resource, error)

type GuardConfig struct {
	// DeniedStatusCode is returned when an authenticated user is denied.
	DeniedStatusCode int
	// AnonymousStatusCode is returned when an anonymous visitor is denied,
	// signalling that logging in may help.
	AnonymousStatusCode int
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		DeniedStatusCode:    http.StatusForbidden,
		AnonymousStatusCode: http.StatusUnauthorized,
	}
}

// Guard wraps a handler with a decision check. Decision errors are surfaced
// as 500s, never as denials, so storage outages do not read as revoked
// access.
func Guard(decider Decider, actor ActorResolver, resource ResourceResolver, config GuardConfig) func(http.Handler) http.Handler {
	if config.DeniedStatusCode == 0 {
		config.DeniedStatusCode = http.StatusForbidden
	}
	if config.AnonymousStatusCode == 0 {
		config.AnonymousStatusCode = http.StatusUnauthorized
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if actor != nil {
				userID = actor(r)
			}

			actorCtx, err := decider.UserContext(r.Context(), userID)
			if err != nil {
				http.Error(w, "authorization unavailable", http.StatusInternalServerError)
				return
			}

			action, res, err := resource(r)
			if err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			allowed, err := decider.Can(r.Context(), actorCtx, action, res)
			if err != nil {
				http.Error(w, "authorization unavailable", http.StatusInternalServerError)
				return
			}
			if !allowed {
				if actorCtx == nil {
					http.Error(w, "unauthorized", config.AnonymousStatusCode)
					return
				}
				http.Error(w, "forbidden", config.DeniedStatusCode)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
