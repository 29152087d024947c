package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"ai-calculator/internal/client"
	"ai-calculator/internal/models"
	"ai-calculator/internal/render"
)

var (
	colorTitle = lipgloss.Color("#fe8019")
	colorDim   = lipgloss.Color("#928374")
	colorGreen = lipgloss.Color("#8ec07c")

	styleTitle = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	styleDim   = lipgloss.NewStyle().Foreground(colorDim)
	styleLabel = lipgloss.NewStyle().Foreground(colorDim).Width(10)
	styleValue = lipgloss.NewStyle().Foreground(colorGreen)
	styleCard  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			PaddingLeft(1).
			PaddingRight(1)
)

type formatter struct {
	styled bool
	now    time.Time
}

func (a *App) formatter() formatter {
	return formatter{styled: a.Styled, now: a.Now()}
}

func (f formatter) title(s string) string {
	if !f.styled {
		return s
	}
	return styleTitle.Render(s)
}

func (f formatter) dim(s string) string {
	if !f.styled {
		return s
	}
	return styleDim.Render(s)
}

func (f formatter) field(label, value string) string {
	if !f.styled {
		return fmt.Sprintf("%-10s%s", label+":", value)
	}
	return styleLabel.Render(label+":") + styleValue.Render(value)
}

// card renders one saved calculation of the dashboard.
func (f formatter) card(calc models.Calculation) string {
	meta := strings.Join([]string{
		calc.OperationType.Label(),
		humanize.RelTime(calc.CreatedAt, f.now, "ago", "from now"),
		calc.ID,
	}, " · ")
	lines := []string{
		f.title(calc.Title),
		f.dim(meta),
		f.field("Input", calc.LatexInput),
		f.field("Solution", render.Solution(calc.Solution)),
	}
	body := strings.Join(lines, "\n")
	if !f.styled {
		return body
	}
	return styleCard.Render(body)
}

func (f formatter) cards(calcs []models.Calculation) string {
	out := make([]string, 0, len(calcs))
	for _, c := range calcs {
		out = append(out, f.card(c))
	}
	return strings.Join(out, "\n\n")
}

// result renders a solve answer with its explanation steps.
func (f formatter) result(res *client.SolveResult) string {
	var b strings.Builder
	fmt.Fprintln(&b, f.field("Input", res.Latex))
	if res.Interval != "" {
		fmt.Fprintln(&b, f.field("Interval", "["+res.Interval+"]"))
	}
	fmt.Fprintln(&b, f.field("Solution", render.Solution(res.Solution)))
	if res.Method != "" {
		fmt.Fprintln(&b, f.dim("solved by "+res.Method))
	}
	if len(res.Steps) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, f.title("Explanation"))
		for i, step := range res.Steps {
			fmt.Fprintf(&b, "%2d. %s\n", i+1, render.StepText(step))
		}
	}
	return b.String()
}
