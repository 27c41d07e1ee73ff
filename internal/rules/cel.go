package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/agentpay/warden/internal/domain"
)

// CELRule adapts a policy-defined CEL expression into the uniform
// rule shape. Expressions see the normalized intent fields and flag
// the intent when they evaluate to true (or a score >= 1). The
// aggregator's default weight for unrecognized rule names means
// custom rules join scoring without aggregator changes.
type CELRule struct {
	name    string
	reason  string
	program cel.Program
}

// celEnv is shared across compilations; the variable set is fixed.
var (
	celEnvOnce sync.Once
	celEnv     *cel.Env
	celEnvErr  error
)

func environment() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("amount", cel.DoubleType),
			cel.Variable("currency", cel.StringType),
			cel.Variable("merchant", cel.StringType),
			cel.Variable("action", cel.StringType),
			cel.Variable("description", cel.StringType),
			cel.Variable("intent", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// CompileCELRule compiles a custom rule definition. The expression
// must produce bool, int, or double.
func CompileCELRule(cfg domain.CustomRule) (*CELRule, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: custom rule name is required", domain.ErrInvalidInput)
	}

	env, err := environment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.Name, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("rule %s: expression must return bool, int, or double, got %s", cfg.Name, outputType)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.Name, err)
	}

	return &CELRule{
		name:    cfg.Name,
		reason:  cfg.Reason,
		program: program,
	}, nil
}

// CompilePolicyRules compiles every enabled custom rule on a policy,
// skipping ones that fail to compile (a malformed policy rule must
// not abort the evaluation).
func CompilePolicyRules(policy domain.Policy) ([]Rule, []error) {
	var compiled []Rule
	var errs []error
	for _, cfg := range policy.CustomRules {
		if !cfg.Enabled {
			continue
		}
		r, err := CompileCELRule(cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		compiled = append(compiled, r)
	}
	return compiled, errs
}

func (r *CELRule) Name() string { return r.name }

// Check evaluates the expression against the normalized intent. A
// runtime evaluation error fails the check conservatively rather than
// erroring out.
func (r *CELRule) Check(_ context.Context, intent *domain.Intent, _ domain.Policy) domain.CheckResult {
	activation := map[string]any{
		"amount":      intent.Amount,
		"currency":    intent.Currency,
		"merchant":    intent.Merchant,
		"action":      intent.Action,
		"description": intent.Description,
		"intent":      intent.ToMap(),
	}

	out, _, err := r.program.Eval(activation)
	if err != nil {
		return domain.CheckResult{
			OK:     false,
			Reason: fmt.Sprintf("Custom rule %q evaluation error", r.name),
			Meta: map[string]any{
				"custom": true,
				"error":  err.Error(),
			},
		}
	}

	flagged := toScore(out) >= 1.0

	reason := r.reason
	if reason == "" {
		reason = fmt.Sprintf("Custom rule %q", r.name)
	}
	if !flagged {
		reason = fmt.Sprintf("Custom rule %q passed", r.name)
	}

	return domain.CheckResult{
		OK:     !flagged,
		Reason: reason,
		Meta: map[string]any{
			"custom": true,
			"score":  toScore(out),
		},
	}
}

// toScore converts a CEL value to a numeric score.
func toScore(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Bool:
		if v {
			return 1.0
		}
		return 0.0
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}
