package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/icddrb/eregistry/pkg/authz"
)

type principalKey struct{}

type Principal struct {
	RoleSlug string
}

func withPrincipalContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func currentPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// parseTokens reads `token=role,token=role`.
func parseTokens(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		token, role, ok := strings.Cut(part, "=")
		token = strings.TrimSpace(token)
		role = strings.TrimSpace(strings.ToLower(role))
		if !ok || token == "" || role == "" {
			return nil, errors.New("server: invalid SYNC_API_TOKENS entry")
		}
		out[token] = role
	}
	return out, nil
}

func tokensFromEnv() (map[string]string, error) {
	return parseTokens(os.Getenv("SYNC_API_TOKENS"))
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for websocket clients that cannot set headers.
func bearerToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func withPrincipal(tokens map[string]string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := authz.RoleAnonymous
		if token := bearerToken(r); token != "" {
			if v, ok := tokens[token]; ok {
				role = v
			}
		}
		next.ServeHTTP(w, r.WithContext(withPrincipalContext(r.Context(), Principal{RoleSlug: role})))
	})
}
