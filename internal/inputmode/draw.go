package inputmode

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"ai-calculator/internal/markup"
)

// latexMime is the key under which handwriting editors export LaTeX.
const latexMime = "application/x-latex"

// Recognizer is a handwriting editor. Each export event carries the raw
// LaTeX of the current ink; the returned func stops delivery.
type Recognizer interface {
	Subscribe(fn func(latex string)) (unsubscribe func())
}

// DrawMode keeps the cleaned output of the last export as its preview.
type DrawMode struct {
	rec       Recognizer
	onPreview func(string)

	mu          sync.Mutex
	active      bool
	latex       string
	unsubscribe func()
}

// NewDrawMode wraps rec. onPreview, if set, receives every cleaned export.
func NewDrawMode(rec Recognizer, onPreview func(string)) *DrawMode {
	return &DrawMode{rec: rec, onPreview: onPreview}
}

func (d *DrawMode) Name() string { return DrawName }

func (d *DrawMode) Activate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return
	}
	d.active = true
	d.unsubscribe = d.rec.Subscribe(d.handleExport)
}

func (d *DrawMode) Deactivate() {
	d.mu.Lock()
	unsubscribe := d.unsubscribe
	d.active = false
	d.unsubscribe = nil
	d.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (d *DrawMode) handleExport(raw string) {
	cleaned := markup.CleanRecognized(raw)
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.latex = cleaned
	d.mu.Unlock()
	if d.onPreview != nil {
		d.onPreview(cleaned)
	}
}

// Preview is the markup recognized so far.
func (d *DrawMode) Preview() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latex
}

// CanSolve reports whether the recognizer produced anything.
func (d *DrawMode) CanSolve() bool {
	return d.Preview() != ""
}

func (d *DrawMode) ProduceMarkup() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return "", ErrInactive
	}
	if d.latex == "" {
		return "", ErrNoMarkup
	}
	return d.latex, nil
}

// ExportRecognizer replays editor exports saved as JSON, either
// {"application/x-latex": "..."} or a bare JSON string.
type ExportRecognizer struct {
	mu   sync.Mutex
	next int
	subs map[int]func(string)
}

func NewExportRecognizer() *ExportRecognizer {
	return &ExportRecognizer{subs: make(map[int]func(string))}
}

func (e *ExportRecognizer) Subscribe(fn func(string)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Import decodes one export from r and delivers it to every subscriber.
func (e *ExportRecognizer) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	latex, err := decodeExport(data)
	if err != nil {
		return err
	}
	e.Emit(latex)
	return nil
}

// Emit delivers latex as if the editor had exported it.
func (e *ExportRecognizer) Emit(latex string) {
	e.mu.Lock()
	subs := make([]func(string), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(latex)
	}
}

func decodeExport(data []byte) (string, error) {
	var exports map[string]json.RawMessage
	if err := json.Unmarshal(data, &exports); err == nil {
		raw, ok := exports[latexMime]
		if !ok {
			return "", fmt.Errorf("export has no %s entry", latexMime)
		}
		var latex string
		if err := json.Unmarshal(raw, &latex); err != nil {
			return "", fmt.Errorf("decode %s: %w", latexMime, err)
		}
		return latex, nil
	}
	var latex string
	if err := json.Unmarshal(data, &latex); err == nil {
		return latex, nil
	}
	// anything else is taken as the LaTeX itself
	return strings.TrimSpace(string(data)), nil
}
