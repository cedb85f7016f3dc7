package services

import (
	"errors"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

var (
	ErrEligibilityExprRequired = errors.New("eligibility expression required")
	ErrEligibilityExprType     = errors.New("eligibility expression must return bool")
)

var newEligibilityCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("user", cel.MapType(cel.StringType, cel.DynType)))
}

// UserEligibility is an extra predicate over a user, written in CEL, e.g.
// `!user.display_name.startsWith("Test")`. Variables: user.id,
// user.display_name, user.roles.
type UserEligibility struct {
	expr    string
	program cel.Program
}

func NewUserEligibility(expr string) (*UserEligibility, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEligibilityExprRequired
	}
	env, err := newEligibilityCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, ErrEligibilityExprType
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &UserEligibility{expr: expr, program: program}, nil
}

func (e *UserEligibility) Expr() string {
	return e.expr
}

func (e *UserEligibility) Eligible(u types.UserRecord) (bool, error) {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	out, _, err := e.program.Eval(map[string]any{
		"user": map[string]any{
			"id":           u.ID,
			"display_name": u.DisplayName,
			"roles":        roles,
		},
	})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, ErrEligibilityExprType
	}
	return v, nil
}
