// Package calculator evaluates purely numeric LaTeX input locally so that
// plain arithmetic never has to reach the CAS.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

var (
	ErrNotNumeric   = errors.New("expression is not purely numeric")
	ErrInvalidInput = errors.New("invalid expression")
)

var (
	fracRe       = regexp.MustCompile(`\\frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrtRe       = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	identifierRe = regexp.MustCompile(`[A-Za-z_]+`)
)

var latexFuncs = strings.NewReplacer(
	`\left`, "", `\right`, "",
	`\cdot`, "*", `\times`, "*", `\div`, "/",
	`\arcsin`, "asin", `\arccos`, "acos", `\arctan`, "atan",
	`\sinh`, "sinh", `\cosh`, "cosh", `\tanh`, "tanh",
	`\sin`, "sin", `\cos`, "cos", `\tan`, "tan",
	`\ln`, "ln", `\log`, "log", `\exp`, "exp",
	`\pi`, "pi",
	`\,`, "", `\;`, "", `\!`, "",
)

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: expected one argument", ErrInvalidInput)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: non-numeric argument", ErrInvalidInput)
		}
		return fn(x), nil
	}
}

var functions = map[string]govaluate.ExpressionFunction{
	"sqrt": unary(math.Sqrt),
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"asin": unary(math.Asin),
	"acos": unary(math.Acos),
	"atan": unary(math.Atan),
	"sinh": unary(math.Sinh),
	"cosh": unary(math.Cosh),
	"tanh": unary(math.Tanh),
	"ln":   unary(math.Log),
	"log":  unary(math.Log10),
	"exp":  unary(math.Exp),
}

var constants = map[string]interface{}{
	"pi": math.Pi,
}

// toExpression rewrites LaTeX into govaluate syntax.
func toExpression(latex string) string {
	expr := latexFuncs.Replace(latex)
	for fracRe.MatchString(expr) {
		expr = fracRe.ReplaceAllString(expr, "(($1)/($2))")
	}
	for sqrtRe.MatchString(expr) {
		expr = sqrtRe.ReplaceAllString(expr, "sqrt($1)")
	}
	expr = strings.ReplaceAll(expr, "^", "**")
	expr = strings.NewReplacer("{", "(", "}", ")").Replace(expr)
	return strings.TrimSpace(expr)
}

// IsNumeric reports whether latex is an expression without variables or an
// equality, i.e. something Evaluate can answer.
func IsNumeric(latex string) bool {
	if strings.TrimSpace(latex) == "" || strings.Contains(latex, "=") {
		return false
	}
	expr := toExpression(latex)
	if strings.ContainsAny(expr, `\[]`) {
		return false
	}
	for _, id := range identifierRe.FindAllString(expr, -1) {
		if _, ok := functions[id]; ok {
			continue
		}
		if _, ok := constants[id]; ok {
			continue
		}
		return false
	}
	return true
}

// Evaluate computes the value of a numeric LaTeX expression.
func Evaluate(latex string) (string, error) {
	if !IsNumeric(latex) {
		return "", ErrNotNumeric
	}
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(toExpression(latex), functions)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	result, err := expression.Evaluate(constants)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	value, ok := result.(float64)
	if !ok {
		return "", fmt.Errorf("%w: result is %T", ErrInvalidInput, result)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", fmt.Errorf("%w: result is not finite", ErrInvalidInput)
	}
	return strconv.FormatFloat(value, 'g', 12, 64), nil
}
