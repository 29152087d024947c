package solver

import (
	"regexp"
	"strings"
)

var onClauseRe = regexp.MustCompile(`\\text\{\s*on\s*\}\s*$`)

// ExtractInterval splits Fourier input such as `x^{2} \text{ on } [-1, 1]` or
// `x \left[0,\pi\right]` into the expression and its interval "a,b".
// ok is false when the input carries no bracketed interval.
func ExtractInterval(latex string) (expr, interval string, ok bool) {
	start, end, width := strings.Index(latex, `\left[`), strings.Index(latex, `\right]`), len(`\left[`)
	if start < 0 || end < start {
		start, end, width = strings.Index(latex, "["), strings.Index(latex, "]"), 1
	}
	if start < 0 || end < start {
		return latex, "", false
	}
	content := strings.TrimSpace(latex[start+width : end])
	if content == "" {
		return latex, "", false
	}
	parts := strings.Split(content, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	expr = strings.TrimSpace(latex[:start])
	expr = strings.TrimSpace(onClauseRe.ReplaceAllString(expr, ""))
	return expr, strings.Join(parts, ","), true
}
