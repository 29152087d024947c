// Package pdf lays out a saved calculation as a one-page A4 document.
package pdf

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"ai-calculator/internal/models"
	"ai-calculator/internal/render"
)

const (
	ContentType = "application/pdf"

	fontFamily = "Helvetica"
	lineHeight = 6.0
)

var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
}

// Render writes calc as a PDF to w.
func Render(w io.Writer, calc *models.Calculation) error {
	// core fonts only cover Windows-1252
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	tr := func(s string) string {
		out, err := enc.String(s)
		if err != nil {
			return s
		}
		return out
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title(calc), true)
	doc.SetCreator("ai-calculator", true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont(fontFamily, "B", 18)
	doc.MultiCell(0, 9, tr(title(calc)), "", "L", false)
	doc.Ln(2)

	doc.SetFont(fontFamily, "", 10)
	doc.SetTextColor(100, 100, 100)
	meta := fmt.Sprintf("%s | %s", calc.OperationType.Label(), calc.CreatedAt.UTC().Format(time.RFC1123))
	doc.MultiCell(0, lineHeight, tr(meta), "", "L", false)
	doc.SetTextColor(0, 0, 0)
	doc.Ln(4)

	section(doc, tr, "Input", calc.LatexInput)
	section(doc, tr, "Solution", render.Solution(calc.Solution))

	if steps := explanationSteps(calc.AIExplanation); len(steps) > 0 {
		heading(doc, tr, "Step-by-step explanation")
		doc.SetFont(fontFamily, "", 11)
		for i, step := range steps {
			doc.MultiCell(0, lineHeight, tr(fmt.Sprintf("%d. %s", i+1, render.StepText(step))), "", "L", false)
			doc.Ln(1)
		}
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func heading(doc *fpdf.Fpdf, tr func(string) string, text string) {
	doc.SetFont(fontFamily, "B", 13)
	doc.MultiCell(0, 8, tr(text), "B", "L", false)
	doc.Ln(2)
}

func section(doc *fpdf.Fpdf, tr func(string) string, name, body string) {
	heading(doc, tr, name)
	doc.SetFont("Courier", "", 11)
	if strings.TrimSpace(body) == "" {
		body = "-"
	}
	doc.MultiCell(0, lineHeight, tr(body), "", "L", false)
	doc.Ln(4)
}

func explanationSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

func title(calc *models.Calculation) string {
	if t := strings.TrimSpace(calc.Title); t != "" {
		return t
	}
	return calc.OperationType.Label() + " calculation"
}

// FileName derives a safe download name from a calculation title.
func FileName(title string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "",
		"<", "", ">", "", "|", "", "\x00", "",
	)
	name := replacer.Replace(strings.TrimSpace(title))
	name = strings.Join(strings.Fields(name), "_")
	name = strings.TrimLeft(name, ".-_")
	name = strings.TrimRight(name, ". ")
	if reservedNames[strings.ToLower(name)] {
		name += "_"
	}
	if name == "" {
		name = "calculation"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
