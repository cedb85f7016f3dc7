package server

import (
	"log"
	"net/http"

	"github.com/icddrb/eregistry/internal/routing"
	"github.com/icddrb/eregistry/pkg/authz"
)

type authorizer interface {
	Authorize(subject string, object string, action string) (authz.Decision, error)
}

func withAuthz(classify func(path string) routing.RouteClass, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if classify(r.URL.Path) == routing.RouteClassOps {
			next.ServeHTTP(w, r)
			return
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, r.URL.Path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		roleSlug := authz.RoleAnonymous
		if p, ok := currentPrincipal(r.Context()); ok {
			roleSlug = p.RoleSlug
		}
		subject := authz.SubjectFromRoleSlug(roleSlug)

		d, err := a.Authorize(subject, object, action)
		if err != nil {
			routing.WriteError(w, r, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if d.Denied() {
			routing.WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		if !d.Allowed {
			log.Printf("authz shadow deny: subject=%s object=%s action=%s", subject, object, action)
		}

		next.ServeHTTP(w, r)
	})
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	switch path {
	case pathDropdown:
		if method == http.MethodGet {
			return authz.ObjectSyncDropdown, authz.ActionRead, true
		}
	case pathFlags:
		switch method {
		case http.MethodGet:
			return authz.ObjectSyncFlags, authz.ActionRead, true
		case http.MethodPost, http.MethodDelete:
			return authz.ObjectSyncFlags, authz.ActionAdmin, true
		}
	case pathRun:
		if method == http.MethodPost {
			return authz.ObjectSyncRun, authz.ActionAdmin, true
		}
	case pathState:
		if method == http.MethodGet {
			return authz.ObjectSyncRun, authz.ActionRead, true
		}
	case routing.PathEvents:
		if method == http.MethodGet {
			return authz.ObjectSyncEvents, authz.ActionRead, true
		}
	}
	return "", "", false
}
