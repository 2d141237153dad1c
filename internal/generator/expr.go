package generator

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/resink-ai/resinker/internal/schema"
)

// derived evaluates params.expression against the object-level context.
// The expression language is expr's sandboxed arithmetic/boolean subset
// with its builtins (sum among them); names are looked up in the context
// and nothing of the host leaks in. Unknown identifiers fail UnknownName.
func (g *Generator) derived(s *schema.Schema, ctx Context) (any, error) {
	expression := paramString(s.Params, "expression", "")
	if expression == "" {
		return nil, fmt.Errorf("%w: derived requires params.expression", ErrInvalidSchema)
	}

	env := map[string]any(ctx.Clone())

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, classifyExprError(expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, classifyExprError(expression, err)
	}

	if precision, ok := s.Params["precision"]; ok {
		if p, pok := toFloat(precision); pok {
			if f, fok := toFloat(result); fok {
				return Round(f, int(p)), nil
			}
		}
	}
	return result, nil
}

func classifyExprError(expression string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unknown name") || strings.Contains(msg, "cannot fetch") {
		return fmt.Errorf("%w: expression %q: %s", ErrUnknownName, expression, msg)
	}
	return fmt.Errorf("%w: expression %q: %s", ErrInvalidSchema, expression, msg)
}
