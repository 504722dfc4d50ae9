// Package tui is the interactive terminal panel for choosing a region and
// the analysis to run on it.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/samirrijal/relief/internal/core/domain"
)

// ErrQuit is returned when the operator leaves the panel without choosing.
var ErrQuit = errors.New("picker: quit")

// Action is what to run on the selected region.
type Action int

const (
	ActionAnalyze Action = iota
	ActionProfile
)

// Selection is the operator's choice. Resolution is set for ActionAnalyze.
type Selection struct {
	Region     string
	Action     Action
	Resolution domain.Resolution
}

var (
	styleBase     = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleCursor   = tcell.StyleDefault.Reverse(true)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
)

// headerRows is the number of rows above the region list.
const headerRows = 2

// footerRows is the number of rows below the region list.
const footerRows = 2

// Picker lists region names on an initialised screen. The caller owns the
// screen and releases it with Fini after Run returns.
type Picker struct {
	screen tcell.Screen
	title  string
	names  []string
	cursor int
	offset int
}

// New creates a picker over names.
func New(screen tcell.Screen, title string, names []string) *Picker {
	return &Picker{screen: screen, title: title, names: names}
}

// Run draws the panel and blocks until a choice is made, the operator
// quits, or ctx is done.
//
// Keys: up/down (or k/j), PgUp/PgDn, Home/End move the cursor; 1, 2 and 3
// analyze at fine, medium and coarse resolution; p samples a profile;
// q, Esc or Ctrl-C quit.
func (p *Picker) Run(ctx context.Context) (Selection, error) {
	if len(p.names) == 0 {
		return Selection{}, fmt.Errorf("%w: no regions to pick from", domain.ErrInvalidConfiguration)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	p.draw()
	for {
		ev := p.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return Selection{}, ErrQuit
		case *tcell.EventInterrupt:
			if err := ctx.Err(); err != nil {
				return Selection{}, err
			}
		case *tcell.EventResize:
			p.screen.Sync()
			p.scroll()
			p.draw()
		case *tcell.EventKey:
			sel, done, err := p.handleKey(ev)
			if done {
				return sel, err
			}
			p.draw()
		}
	}
}

func (p *Picker) handleKey(ev *tcell.EventKey) (Selection, bool, error) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Selection{}, true, ErrQuit
	case tcell.KeyUp:
		p.move(-1)
	case tcell.KeyDown:
		p.move(1)
	case tcell.KeyPgUp:
		p.move(-p.listHeight())
	case tcell.KeyPgDn:
		p.move(p.listHeight())
	case tcell.KeyHome:
		p.move(-len(p.names))
	case tcell.KeyEnd:
		p.move(len(p.names))
	case tcell.KeyRune:
		region := p.names[p.cursor]
		switch ev.Rune() {
		case 'q':
			return Selection{}, true, ErrQuit
		case 'k':
			p.move(-1)
		case 'j':
			p.move(1)
		case '1':
			return Selection{Region: region, Action: ActionAnalyze, Resolution: domain.Fine}, true, nil
		case '2':
			return Selection{Region: region, Action: ActionAnalyze, Resolution: domain.Medium}, true, nil
		case '3':
			return Selection{Region: region, Action: ActionAnalyze, Resolution: domain.Coarse}, true, nil
		case 'p':
			return Selection{Region: region, Action: ActionProfile}, true, nil
		}
	}
	return Selection{}, false, nil
}

func (p *Picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), len(p.names)-1)
	p.scroll()
}

// scroll keeps the cursor inside the visible window.
func (p *Picker) scroll() {
	h := p.listHeight()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+h {
		p.offset = p.cursor - h + 1
	}
}

func (p *Picker) listHeight() int {
	_, h := p.screen.Size()
	return max(h-headerRows-footerRows, 1)
}

func (p *Picker) draw() {
	s := p.screen
	s.Clear()
	w, h := s.Size()

	putStr(s, 0, 0, w, styleTitle, p.title)
	putStr(s, 0, 1, w, styleHelp, fmt.Sprintf("%d regions", len(p.names)))

	for row := 0; row < p.listHeight(); row++ {
		i := p.offset + row
		if i >= len(p.names) {
			break
		}
		style := styleBase
		if i == p.cursor {
			style = styleCursor
		}
		putStr(s, 0, headerRows+row, w, style, " "+p.names[i]+" ")
	}

	putStr(s, 0, h-2, w, styleSelected, "> "+p.names[p.cursor])
	putStr(s, 0, h-1, w, styleHelp, "1 fine  2 medium  3 coarse  p profile  q quit")
	s.Show()
}

// putStr writes str from (x, y), clipped to width runes.
func putStr(s tcell.Screen, x, y, width int, style tcell.Style, str string) {
	for _, r := range str {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
