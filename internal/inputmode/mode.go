// Package inputmode holds the two producers of solver markup, handwriting and
// typed text, and the controller that keeps exactly one of them active.
package inputmode

import (
	"errors"
	"fmt"
)

var (
	ErrNoMarkup    = errors.New("no expression to solve")
	ErrInactive    = errors.New("input mode is not active")
	ErrUnknownMode = errors.New("unknown input mode")
)

const (
	DrawName = "draw"
	TextName = "text"
)

// Mode produces canonical markup while active.
type Mode interface {
	Name() string
	Activate()
	Deactivate()
	ProduceMarkup() (string, error)
}

// Controller switches between the draw and text modes. Draw is active
// initially and there is no terminal state.
type Controller struct {
	draw    *DrawMode
	text    *TextMode
	current Mode
}

func NewController(draw *DrawMode, text *TextMode) *Controller {
	c := &Controller{draw: draw, text: text, current: draw}
	draw.Activate()
	return c
}

func (c *Controller) Current() Mode { return c.current }

func (c *Controller) Draw() *DrawMode { return c.draw }

func (c *Controller) Text() *TextMode { return c.text }

// Toggle flips to the other mode and returns it.
func (c *Controller) Toggle() Mode {
	if c.current.Name() == DrawName {
		c.switchTo(c.text)
	} else {
		c.switchTo(c.draw)
	}
	return c.current
}

// Select activates the named mode. Selecting the current mode is a no-op.
func (c *Controller) Select(name string) error {
	switch name {
	case DrawName:
		c.switchTo(c.draw)
	case TextName:
		c.switchTo(c.text)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return nil
}

func (c *Controller) switchTo(m Mode) {
	if c.current == m {
		return
	}
	c.current.Deactivate()
	m.Activate()
	c.current = m
}
