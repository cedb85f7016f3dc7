package authz

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"
)

func ModeFromEnv() (Mode, error) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv("AUTHZ_MODE")))
	if raw == "" {
		return ModeEnforce, nil
	}
	switch Mode(raw) {
	case ModeEnforce, ModeShadow:
		return Mode(raw), nil
	case ModeDisabled:
		if os.Getenv("AUTHZ_UNSAFE_ALLOW_DISABLED") != "1" {
			return "", errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
		return ModeDisabled, nil
	default:
		return "", errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	}
}

// Decision is the outcome of one check. Enforced=false means the caller must
// let the request through whatever Allowed says (shadow or disabled mode).
type Decision struct {
	Allowed  bool
	Enforced bool
}

// Denied reports whether the request has to be rejected.
func (d Decision) Denied() bool {
	return d.Enforced && !d.Allowed
}

// Authorizer checks role subjects against sync objects. Policy objects may end
// in `*` to cover every object under a prefix (`sync.*`).
type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

func NewAuthorizer(modelPath string, policyPath string, mode Mode) (*Authorizer, error) {
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

// NewAuthorizerFromEnv reads AUTHZ_MODE, AUTHZ_MODEL_PATH and AUTHZ_POLICY_PATH.
// Missing paths fall back to config/access found by walking up from the
// working directory.
func NewAuthorizerFromEnv() (*Authorizer, error) {
	mode, err := ModeFromEnv()
	if err != nil {
		return nil, err
	}
	modelPath, err := configPath("AUTHZ_MODEL_PATH", "model.conf")
	if err != nil {
		return nil, err
	}
	policyPath, err := configPath("AUTHZ_POLICY_PATH", "policy.csv")
	if err != nil {
		return nil, err
	}
	return NewAuthorizer(modelPath, policyPath, mode)
}

func configPath(envKey string, name string) (string, error) {
	if p := strings.TrimSpace(os.Getenv(envKey)); p != "" {
		return p, nil
	}
	path := filepath.Join("config", "access", name)
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("authz: config/access/" + name + " not found")
}

func SubjectFromRoleSlug(roleSlug string) string {
	roleSlug = strings.TrimSpace(strings.ToLower(roleSlug))
	if roleSlug == "" {
		roleSlug = RoleAnonymous
	}
	return "role:" + roleSlug
}

func (a *Authorizer) Mode() Mode {
	return a.mode
}

func (a *Authorizer) Authorize(subject string, object string, action string) (Decision, error) {
	switch a.mode {
	case ModeDisabled:
		return Decision{Allowed: true}, nil
	case ModeShadow, ModeEnforce:
		enforced := a.mode == ModeEnforce
		ok, err := a.enforcer.Enforce(subject, object, action)
		if err != nil {
			return Decision{Enforced: enforced}, err
		}
		return Decision{Allowed: ok, Enforced: enforced}, nil
	default:
		return Decision{}, errors.New("authz: unknown mode")
	}
}
