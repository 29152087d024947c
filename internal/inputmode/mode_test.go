package inputmode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-calculator/internal/models"
)

func newController() (*Controller, *ExportRecognizer) {
	rec := NewExportRecognizer()
	return NewController(NewDrawMode(rec, nil), NewTextMode()), rec
}

func TestController_StartsInDraw(t *testing.T) {
	c, _ := newController()
	assert.Equal(t, DrawName, c.Current().Name())
}

func TestController_Toggle(t *testing.T) {
	c, rec := newController()

	assert.Equal(t, TextName, c.Toggle().Name())
	rec.Emit("x=1")
	assert.False(t, c.Draw().CanSolve(), "inactive draw mode must ignore exports")
	_, err := c.Draw().ProduceMarkup()
	assert.ErrorIs(t, err, ErrInactive)

	assert.Equal(t, DrawName, c.Toggle().Name())
	_, err = c.Text().ProduceMarkup()
	assert.ErrorIs(t, err, ErrInactive)
}

func TestController_Select(t *testing.T) {
	c, _ := newController()

	require.NoError(t, c.Select(TextName))
	require.NoError(t, c.Select(TextName))
	assert.Equal(t, TextName, c.Current().Name())

	assert.ErrorIs(t, c.Select("voice"), ErrUnknownMode)
	assert.Equal(t, TextName, c.Current().Name())
}

func TestDrawMode_PreviewAndMarkup(t *testing.T) {
	rec := NewExportRecognizer()
	var previews []string
	d := NewDrawMode(rec, func(s string) { previews = append(previews, s) })
	d.Activate()

	_, err := d.ProduceMarkup()
	assert.ErrorIs(t, err, ErrNoMarkup)
	assert.False(t, d.CanSolve())

	rec.Emit(`\begin{aligned}x+y&=2\\x-y&=0\end{aligned}`)
	got, err := d.ProduceMarkup()
	require.NoError(t, err)
	assert.Equal(t, "x+y=2, x-y=0", got)
	assert.True(t, d.CanSolve())
	assert.Equal(t, []string{"x+y=2, x-y=0"}, previews)

	d.Deactivate()
	rec.Emit("y=3")
	assert.Len(t, previews, 1)
}

func TestExportRecognizer_Import(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mime map", `{"application/x-latex": "x^{2}=4"}`, "x^{2}=4"},
		{"json string", `"y=2"`, "y=2"},
		{"raw latex", "z=1\n", "z=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewExportRecognizer()
			var got string
			rec.Subscribe(func(s string) { got = s })
			require.NoError(t, rec.Import(strings.NewReader(tt.in)))
			assert.Equal(t, tt.want, got)
		})
	}

	rec := NewExportRecognizer()
	assert.Error(t, rec.Import(strings.NewReader(`{"text/plain": "x"}`)))
}

func TestTextMode(t *testing.T) {
	m := NewTextMode()
	m.Activate()

	_, err := m.ProduceMarkup()
	assert.ErrorIs(t, err, ErrNoMarkup)

	m.SetOperation(models.OpFourier)
	m.SetText("x^2[-3.14,3.14]")
	got, err := m.ProduceMarkup()
	require.NoError(t, err)
	assert.Equal(t, `x^{2} \text{ on } [-3.14, 3.14]`, got)
	assert.Equal(t, "-3.14,3.14", m.Interval())

	m.SetOperation(models.OpSolve)
	m.SetText("2x+1=0")
	got, err = m.ProduceMarkup()
	require.NoError(t, err)
	assert.Equal(t, "2 x+1=0", got)
	assert.Empty(t, m.Interval())
}

func TestTextMode_FourierDomainAlone(t *testing.T) {
	m := NewTextMode()
	m.Activate()
	m.SetOperation(models.OpFourier)
	m.SetText("[0,1]")
	_, err := m.ProduceMarkup()
	assert.ErrorIs(t, err, ErrNoMarkup)
	assert.Empty(t, m.Interval())
}
