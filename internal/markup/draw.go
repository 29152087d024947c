package markup

import (
	"regexp"
	"strings"
)

var (
	envRe       = regexp.MustCompile(`\\(begin|end)\{(aligned|align\*?|gathered|array|cases|split)\}(\{[^{}]*\})?`)
	rowBreakRe  = regexp.MustCompile(`\s*\\\\\s*`)
	trailingSep = regexp.MustCompile(`(,\s*)+$`)
)

// CleanRecognized normalizes the LaTeX exported by the handwriting editor:
// alignment environments are dropped, alignment markers removed and row
// breaks turned into commas so a drawn system reads "a=b, c=d".
func CleanRecognized(latex string) string {
	s := envRe.ReplaceAllString(latex, "")
	s = strings.ReplaceAll(s, `\&`, "\x00")
	s = strings.ReplaceAll(s, "&", "")
	s = strings.ReplaceAll(s, "\x00", `\&`)
	s = rowBreakRe.ReplaceAllString(s, ", ")
	s = strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
	s = strings.TrimPrefix(s, ", ")
	return strings.TrimSpace(trailingSep.ReplaceAllString(s, ""))
}
