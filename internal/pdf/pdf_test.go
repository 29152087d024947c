package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-calculator/internal/models"
)

func TestRender(t *testing.T) {
	calc := &models.Calculation{
		ID:            "c1",
		Title:         "Laplace – déjà vu",
		OperationType: models.OpLaplace,
		LatexInput:    `t^{2} e^{-3 t}`,
		Solution:      models.SingleSolution(`\frac{2}{(s+3)^{3}}`),
		AIExplanation: "**Step 1:** recall $L\\{t^n\\}$\n\nStep 2: shift by $-3$",
		CreatedAt:     time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, calc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "missing PDF header")
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestRender_EmptyCalculation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &models.Calculation{OperationType: models.OpSolve}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Solve - 2025-05-01 10:30", "Solve_-_2025-05-01_10-30.pdf"},
		{"../../etc/passwd", "etc-passwd.pdf"},
		{"  ", "calculation.pdf"},
		{"con", "con_.pdf"},
		{"report.PDF", "report.PDF"},
		{`a<b>|c?`, "abc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.in))
		})
	}
}
