package client

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"ai-calculator/internal/models"
	"ai-calculator/internal/pdf"
	"ai-calculator/internal/render"
)

type SortMode string

const (
	SortNewest SortMode = "newest"
	SortOldest SortMode = "oldest"
	SortType   SortMode = "type"
)

func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortType:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want newest, oldest or type)", s)
	}
}

// SortCalculations orders calcs in place. The sort is stable; "type" orders
// by operation name with the newest first inside each type.
func SortCalculations(calcs []models.Calculation, mode SortMode) {
	newestFirst := func(a, b models.Calculation) int { return b.CreatedAt.Compare(a.CreatedAt) }
	switch mode {
	case SortOldest:
		slices.SortStableFunc(calcs, func(a, b models.Calculation) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case SortType:
		slices.SortStableFunc(calcs, func(a, b models.Calculation) int {
			if c := strings.Compare(string(a.OperationType), string(b.OperationType)); c != 0 {
				return c
			}
			return newestFirst(a, b)
		})
	default:
		slices.SortStableFunc(calcs, newestFirst)
	}
}

// Dashboard is the in-memory list of saved calculations.
type Dashboard struct {
	client *Client
	mu     sync.Mutex
	mode   SortMode
	items  []models.Calculation
}

func (c *Client) Dashboard() *Dashboard {
	return &Dashboard{client: c, mode: SortNewest}
}

// Load fetches the list and sorts it by mode.
func (d *Dashboard) Load(ctx context.Context, mode SortMode) ([]models.Calculation, error) {
	if _, err := d.client.RequireSession(); err != nil {
		return nil, err
	}
	var resp struct {
		Calculations []models.Calculation `json:"calculations"`
	}
	if err := d.client.do(ctx, http.MethodGet, "/api/calculations", nil, &resp); err != nil {
		return nil, fmt.Errorf("error loading calculations: %w", err)
	}
	SortCalculations(resp.Calculations, mode)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	d.items = resp.Calculations
	return slices.Clone(d.items), nil
}

// Items returns a copy of the current list.
func (d *Dashboard) Items() []models.Calculation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.items)
}

// Delete removes the calculation on the server and then from the list. When
// id is not in the list the whole list is fetched again.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.client.do(ctx, http.MethodDelete, calculationPath(id), nil, nil); err != nil {
		return fmt.Errorf("error deleting calculation: %w", err)
	}

	d.mu.Lock()
	idx := slices.IndexFunc(d.items, func(c models.Calculation) bool { return c.ID == id })
	if idx >= 0 {
		d.items = slices.Delete(d.items, idx, idx+1)
	}
	mode := d.mode
	d.mu.Unlock()

	if idx < 0 {
		_, err := d.Load(ctx, mode)
		return err
	}
	return nil
}

func calculationPath(id string) string {
	return "/api/calculations/" + url.PathEscape(id)
}

func (d *Dashboard) get(ctx context.Context, id string) (*models.Calculation, error) {
	var resp struct {
		Calculation models.Calculation `json:"calculation"`
	}
	if err := d.client.do(ctx, http.MethodGet, calculationPath(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("error loading calculation: %w", err)
	}
	return &resp.Calculation, nil
}

// Export is what ExportPDF wrote.
type Export struct {
	PDF     string
	Preview string
}

var previewTmpl = template.Must(template.New("preview").Funcs(template.FuncMap{
	"solution": render.Solution,
	"steps":    render.StepsHTML,
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.OperationType.Label}} &middot; {{.CreatedAt.Format "2006-01-02 15:04"}}</p>
<h2>Input</h2><p>\[{{.LatexInput}}\]</p>
<h2>Solution</h2><p>\[{{solution .Solution}}\]</p>
{{with .Steps}}<h2>Explanation</h2><ol>{{range steps .}}<li>{{.}}</li>{{end}}</ol>{{end}}
</body></html>
`))

type previewData struct {
	*models.Calculation
	Steps []string
}

// Preview renders the HTML preview of calc.
func Preview(calc *models.Calculation) (string, error) {
	var steps []string
	for _, line := range strings.Split(calc.AIExplanation, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	var b strings.Builder
	if err := previewTmpl.Execute(&b, previewData{Calculation: calc, Steps: steps}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ExportPDF downloads the PDF of calculation id into dir as
// "<sanitized title>.pdf" and writes the HTML preview next to it.
func (d *Dashboard) ExportPDF(ctx context.Context, id, dir string) (*Export, error) {
	calc, err := d.get(ctx, id)
	if err != nil {
		return nil, err
	}
	preview, err := Preview(calc)
	if err != nil {
		return nil, fmt.Errorf("error building preview: %w", err)
	}
	blob, _, err := d.client.send(ctx, http.MethodGet, calculationPath(id)+"/pdf", nil)
	if err != nil {
		return nil, fmt.Errorf("error generating PDF: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	name := pdf.FileName(calc.Title)
	out := &Export{
		PDF:     filepath.Join(dir, name),
		Preview: filepath.Join(dir, strings.TrimSuffix(name, ".pdf")+".html"),
	}
	if err := os.WriteFile(out.PDF, blob, 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.Preview, []byte(preview), 0644); err != nil {
		return nil, err
	}
	return out, nil
}
