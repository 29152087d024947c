// Package render formats solver output: the solution as display LaTeX and the
// explanation steps as HTML or terminal text.
package render

import (
	"errors"
	"html/template"
	"regexp"
	"strings"

	"ai-calculator/internal/models"
)

const solutionSep = `, \; `

var errUnclosedMath = errors.New("unclosed math delimiter")

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+?)\*`)
)

// Solution returns the display LaTeX of s. List solutions are joined with a
// thin space and prefixed with "x = " unless a value already has an "=".
func Solution(s models.Solution) string {
	if !s.Multi {
		if len(s.Values) == 0 {
			return ""
		}
		return s.Values[0]
	}
	values := make([]string, 0, len(s.Values))
	hasEq := false
	for _, v := range s.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		hasEq = hasEq || strings.Contains(v, "=")
		values = append(values, v)
	}
	if len(values) == 0 {
		return ""
	}
	joined := strings.Join(values, solutionSep)
	if hasEq {
		return joined
	}
	return "x = " + joined
}

// segment is a run of step text, either prose or inline math.
type segment struct {
	text string
	math bool
}

// splitMath cuts s into prose and math segments. Math is delimited by $...$
// or \(...\).
func splitMath(s string) ([]segment, error) {
	var out []segment
	for s != "" {
		i := strings.IndexAny(s, `$\`)
		for i >= 0 && s[i] == '\\' && !strings.HasPrefix(s[i:], `\(`) {
			next := strings.IndexAny(s[i+1:], `$\`)
			if next < 0 {
				i = -1
				break
			}
			i += next + 1
		}
		if i < 0 {
			out = append(out, segment{text: s})
			break
		}
		if i > 0 {
			out = append(out, segment{text: s[:i]})
		}
		open, closer := "$", "$"
		if s[i] == '\\' {
			open, closer = `\(`, `\)`
		}
		rest := s[i+len(open):]
		end := strings.Index(rest, closer)
		if end < 0 {
			return nil, errUnclosedMath
		}
		out = append(out, segment{text: rest[:end], math: true})
		s = rest[end+len(closer):]
	}
	return out, nil
}

func emphasis(escaped string) string {
	escaped = boldRe.ReplaceAllString(escaped, "<strong>$1</strong>")
	return italicRe.ReplaceAllString(escaped, "<em>$1</em>")
}

func stepHTML(step string) (string, error) {
	segs, err := splitMath(step)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, seg := range segs {
		if seg.math {
			b.WriteString(`<span class="math">\(`)
			b.WriteString(template.HTMLEscapeString(seg.text))
			b.WriteString(`\)</span>`)
			continue
		}
		b.WriteString(emphasis(template.HTMLEscapeString(seg.text)))
	}
	return b.String(), nil
}

// StepHTML renders one explanation step. Steps that cannot be parsed come
// back as escaped raw text.
func StepHTML(step string) template.HTML {
	out, err := stepHTML(step)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(step))
	}
	return template.HTML(out)
}

// StepsHTML renders every step.
func StepsHTML(steps []string) []template.HTML {
	out := make([]template.HTML, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepHTML(s))
	}
	return out
}

// StepText renders a step for a terminal: emphasis markers are dropped and
// math is kept between $ signs.
func StepText(step string) string {
	segs, err := splitMath(step)
	if err != nil {
		return step
	}
	var b strings.Builder
	for _, seg := range segs {
		if seg.math {
			b.WriteString("$" + seg.text + "$")
			continue
		}
		t := boldRe.ReplaceAllString(seg.text, "$1")
		b.WriteString(italicRe.ReplaceAllString(t, "$1"))
	}
	return b.String()
}
