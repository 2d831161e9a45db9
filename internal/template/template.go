// Package template renders outreach message text for follow-up, comment,
// and inmail node executors, substituting simple {{var}} placeholders and
// evaluating ${expr} compositions for conditional copy.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

var (
	simpleVarPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	exprPattern      = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// Vars is the set of fields a message template may reference: the lead's
// name parts and last known company.
type Vars struct {
	FirstName string
	LastName  string
	Company   string
}

func (v Vars) toMap() map[string]any {
	return map[string]any{
		"first_name": v.FirstName,
		"last_name":  v.LastName,
		"company":    v.Company,
	}
}

// Render substitutes {{var}} placeholders and ${expr} compositions in text
// using the given lead variables. Missing variables are left as literal
// placeholders rather than failing the render, since a message with an
// unresolved field is still sendable.
func Render(text string, v Vars) (string, error) {
	vars := v.toMap()

	result := text

	for _, match := range exprPattern.FindAllStringSubmatch(result, -1) {
		if len(match) < 2 {
			continue
		}
		placeholder := match[0]
		expression := match[1]
		value, err := evaluate(expression, vars)
		if err != nil {
			continue
		}
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}

	for _, match := range simpleVarPattern.FindAllStringSubmatch(result, -1) {
		if len(match) < 2 {
			continue
		}
		placeholder := match[0]
		varName := strings.TrimSpace(match[1])
		value, ok := vars[varName]
		if !ok || value == nil || value == "" {
			continue
		}
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}

	return result, nil
}

// EvalBool compiles and runs expression against v's variables, requiring a
// boolean result. Used by the Condition node kind to decide its outgoing
// positive/negative edge.
func EvalBool(expression string, v Vars) (bool, error) {
	result, err := evaluate(expression, v.toMap())
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition expression %q did not evaluate to a boolean", expression)
	}
	return b, nil
}

func evaluate(expression string, vars map[string]any) (any, error) {
	program, err := expr.Compile(expression, expr.Env(vars), expr.AsAny())
	if err != nil {
		program, err = expr.Compile(expression, expr.AsAny())
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression: %w", err)
		}
	}

	result, err := expr.Run(program, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to execute expression: %w", err)
	}
	return result, nil
}
