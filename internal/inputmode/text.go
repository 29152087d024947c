package inputmode

import (
	"strings"
	"sync"

	"ai-calculator/internal/markup"
	"ai-calculator/internal/models"
)

// TextMode converts typed input with the heuristic converter.
type TextMode struct {
	mu     sync.Mutex
	active bool
	op     models.OperationType
	text   string
	last   markup.Result
}

func NewTextMode() *TextMode {
	return &TextMode{op: models.OpSolve}
}

func (m *TextMode) Name() string { return TextName }

func (m *TextMode) Activate() {
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()
}

func (m *TextMode) Deactivate() {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
}

func (m *TextMode) SetText(s string) {
	m.mu.Lock()
	m.text = s
	m.mu.Unlock()
}

// SetOperation changes how the text is read; Fourier input may carry a domain.
func (m *TextMode) SetOperation(op models.OperationType) {
	m.mu.Lock()
	m.op = op
	m.mu.Unlock()
}

func (m *TextMode) ProduceMarkup() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return "", ErrInactive
	}
	if strings.TrimSpace(m.text) == "" {
		return "", ErrNoMarkup
	}
	m.last = markup.FromText(m.text, m.op)
	if m.last.Latex == "" {
		return "", ErrNoMarkup
	}
	return m.last.Latex, nil
}

// Interval is the Fourier domain of the last produced markup, "" if none.
func (m *TextMode) Interval() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.Interval()
}
