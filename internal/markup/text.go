// Package markup turns raw user input into the canonical LaTeX sent to the
// solver. The text converter is a heuristic: it never rejects input, and
// ambiguous input may come out wrong.
package markup

import (
	"regexp"
	"strings"

	"ai-calculator/internal/models"
)

// Result is the converter output. Lower/Upper are set only when a Fourier
// domain annotation was found.
type Result struct {
	Latex string
	Lower string
	Upper string
}

func (r Result) HasDomain() bool {
	return r.Lower != "" || r.Upper != ""
}

// Interval is the domain in the "a,b" form the solve API accepts.
func (r Result) Interval() string {
	if !r.HasDomain() {
		return ""
	}
	return r.Lower + "," + r.Upper
}

var (
	domainRe   = regexp.MustCompile(`^(.*?)\[\s*([^,\[\]]+?)\s*,\s*([^,\[\]]+?)\s*\]\s*$`)
	fracRe     = regexp.MustCompile(`([0-9A-Za-z.]+)\s*/\s*([0-9A-Za-z.]+)`)
	funcRe     = regexp.MustCompile(`(^|[^A-Za-z\\])(arcsin|arccos|arctan|sinh|cosh|tanh|sin|cos|tan|cot|sec|csc|ln|log|exp)`)
	piRe       = regexp.MustCompile(`(^|[^A-Za-z\\])pi([^A-Za-z]|$)`)
	spacesRe   = regexp.MustCompile(`\s+`)
	multSignRe = regexp.MustCompile(`\s*(\*|×|·)\s*`)
)

// FromText converts free text for the given operation. For Fourier input a
// trailing "expr[a,b]" annotation becomes an "on [a, b]" clause; a bare
// "[a,b]" with no expression converts to nothing.
func FromText(input string, op models.OperationType) Result {
	input = strings.TrimSpace(input)
	if op == models.OpFourier {
		if m := domainRe.FindStringSubmatch(input); m != nil {
			expr := convert(m[1])
			if expr == "" {
				return Result{}
			}
			return Result{
				Latex: expr + ` \text{ on } [` + convert(m[2]) + ", " + convert(m[3]) + "]",
				Lower: m[2],
				Upper: m[3],
			}
		}
	}
	return Result{Latex: convert(input)}
}

func convert(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = multSignRe.ReplaceAllString(s, ` \cdot `)
	s = fracRe.ReplaceAllString(s, `\frac{$1}{$2}`)
	s = rewriteCall(s, "sqrt", `\sqrt`)
	s = funcRe.ReplaceAllString(s, `$1\$2`)
	s = piRe.ReplaceAllString(s, `$1\pi $2`)
	s = braceExponents(s)
	s = insertSpacing(s)
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

// rewriteCall turns name(...) into cmd{...}, honoring nested parentheses.
func rewriteCall(s, name, cmd string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], name+"(") && (i == 0 || !isLetter(s[i-1])) {
			open := i + len(name)
			if end := matching(s, open, '(', ')'); end > 0 {
				b.WriteString(cmd + "{" + rewriteCall(s[open+1:end], name, cmd) + "}")
				i = end + 1
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// braceExponents wraps every exponent in braces: ^(x) and ^x become ^{x}.
func braceExponents(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '^' {
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte('^')
		j := i + 1
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j >= len(s) {
			continue
		}
		switch {
		case s[j] == '{':
			if end := matching(s, j, '{', '}'); end > 0 {
				b.WriteString(s[j : end+1])
				i = end
				continue
			}
		case s[j] == '(':
			if end := matching(s, j, '(', ')'); end > 0 {
				b.WriteString("{" + braceExponents(s[j+1:end]) + "}")
				i = end
				continue
			}
		}
		end := exponentToken(s, j)
		if end == j {
			continue
		}
		b.WriteString("{" + s[j:end] + "}")
		i = end - 1
	}
	return b.String()
}

// exponentToken returns the end of a bare exponent starting at j: an optional
// minus followed by a number, a single letter or a \command.
func exponentToken(s string, j int) int {
	k := j
	if k < len(s) && s[k] == '-' {
		k++
	}
	switch {
	case k < len(s) && isDigit(s[k]):
		for k < len(s) && (isDigit(s[k]) || s[k] == '.') {
			k++
		}
	case k < len(s) && s[k] == '\\':
		k++
		for k < len(s) && isLetter(s[k]) {
			k++
		}
	case k < len(s) && isLetter(s[k]):
		k++
	default:
		return j
	}
	return k
}

// insertSpacing separates implicit products: "2x" -> "2 x", "}e" -> "} e",
// ")(" -> ") (". Command names after a backslash are left intact.
func insertSpacing(s string) string {
	var b strings.Builder
	inCommand := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i > 0 {
			prev := s[i-1]
			switch {
			case isDigit(prev) && (isLetter(c) || c == '\\' || c == '('):
				b.WriteByte(' ')
			case (prev == ')' || prev == '}') && (isLetter(c) || isDigit(c) || c == '\\' || c == '('):
				b.WriteByte(' ')
			case isLetter(prev) && !inCommand && c == '\\':
				b.WriteByte(' ')
			}
		}
		switch {
		case c == '\\':
			inCommand = true
		case !isLetter(c):
			inCommand = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

func matching(s string, open int, left, right byte) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case left:
			depth++
		case right:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
