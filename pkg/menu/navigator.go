package menu

import (
	"context"
	"fmt"

	"github.com/dougsko/micro26/pkg/hardware"
	"github.com/dougsko/micro26/pkg/logging"
	"github.com/dougsko/micro26/pkg/panel"
	"github.com/dougsko/micro26/pkg/tuning"
)

// DeadZone is how many encoder steps must accumulate before the cursor moves.
const DeadZone = 2

// Knob is the tuning input as seen by the menu.
type Knob interface {
	Take(deadZone int) (tuning.Sample, bool)
	Discard()
}

// KeySource polls the keypad.
type KeySource interface {
	Key() hardware.Key
}

// Kind says how a menu interaction ended.
type Kind int

const (
	// Skipped means the operator backed out without choosing; a walk
	// moves on to the next category.
	Skipped Kind = iota
	Selected
	// Quit ends the whole menu session.
	Quit
)

func (k Kind) String() string {
	switch k {
	case Selected:
		return "selected"
	case Quit:
		return "quit"
	default:
		return "skipped"
	}
}

// Outcome is the result of navigating a category or walking the menu.
type Outcome struct {
	Kind Kind
	Code Code
}

// Navigator runs the menu on the panel, reading the knob and keypad.
type Navigator struct {
	knob  Knob
	keys  KeySource
	panel *panel.Panel

	// Preview is called with the highlighted leaf whenever it changes.
	Preview func(c Category, leaf int)
	// PreviewMemory is called with the highlighted slot in the memory
	// picker.
	PreviewMemory func(slot int)
	// Pause is called once per poll.
	Pause func()
}

// NewNavigator creates a navigator
func NewNavigator(knob Knob, keys KeySource, p *panel.Panel) *Navigator {
	return &Navigator{knob: knob, keys: keys, panel: p}
}

func (n *Navigator) pause() {
	if n.Pause != nil {
		n.Pause()
	}
}

func (n *Navigator) preview(c Category, leaf int) {
	if n.Preview != nil {
		n.Preview(c, leaf)
	}
}

// waitRelease polls until no key is down
func (n *Navigator) waitRelease(ctx context.Context) error {
	for n.keys.Key() != hardware.KeyNone {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.pause()
	}
	return nil
}

// step moves cursor one position in the direction of delta, wrapping
// within count
func step(cursor, delta, count int) int {
	if delta > 0 {
		return (cursor + 1) % count
	}
	return (cursor + count - 1) % count
}

// Navigate lets the operator pick a leaf of c. Turning the knob past the
// dead zone moves the highlight one leaf with wraparound; select commits,
// back skips the category and a long press quits the menu.
func (n *Navigator) Navigate(ctx context.Context, c Category) (Outcome, error) {
	leaves := c.Leaves()
	if len(leaves) == 0 {
		return Outcome{}, fmt.Errorf("category %q has no leaves", c.Title())
	}

	n.knob.Discard()
	n.panel.ShowMenu(c.Title(), leaves)

	cursor := 0
	n.panel.ShowMenuItem(cursor, leaves[cursor], true)
	n.preview(c, cursor)

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		if s, ok := n.knob.Take(DeadZone); ok {
			n.panel.ShowMenuItem(cursor, leaves[cursor], false)
			cursor = step(cursor, s.Delta, len(leaves))
			n.panel.ShowMenuItem(cursor, leaves[cursor], true)
			n.preview(c, cursor)
		}

		key := n.keys.Key()
		if key == hardware.KeyNone {
			n.pause()
			continue
		}
		if err := n.waitRelease(ctx); err != nil {
			return Outcome{}, err
		}

		switch key {
		case hardware.KeySelect:
			code := CodeFor(c, cursor)
			logging.Debugf("menu", "%s: selected %s (%d)", c.Title(), leaves[cursor], code)
			return Outcome{Kind: Selected, Code: code}, nil
		case hardware.KeyLongPress:
			return Outcome{Kind: Quit}, nil
		default:
			return Outcome{Kind: Skipped}, nil
		}
	}
}

// Walk offers each category in turn. The first selection ends the walk, as
// does a quit; backing out of every category returns Skipped.
func (n *Navigator) Walk(ctx context.Context) (Outcome, error) {
	if err := n.waitRelease(ctx); err != nil {
		return Outcome{}, err
	}
	for _, c := range Categories() {
		out, err := n.Navigate(ctx, c)
		if err != nil {
			return Outcome{}, err
		}
		if out.Kind != Skipped {
			return out, nil
		}
	}
	return Outcome{Kind: Skipped}, nil
}
