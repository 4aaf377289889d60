// Package ui is the terminal front end: a tview board that draws a game
// state and turns keys and mouse clicks into moves.
package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// Left gutter holds the row numbers; the top line holds the column ruler.
const (
	gutterWidth = 4
	rulerHeight = 1
)

type BoardView struct {
	Box        *tview.Box
	ctrl       Controller
	theme      *Theme
	status     *tview.TextView
	state      *engine.GameState
	reason     string
	originX    int
	originY    int
	onGameOver func(state *engine.GameState)
}

// NewBoardView loads the controller's current state. status may be nil.
func NewBoardView(ctrl Controller, theme *Theme, status *tview.TextView) (*BoardView, error) {
	if theme == nil {
		t := DefaultTheme
		theme = &t
	}
	v := &BoardView{
		Box:    tview.NewBox(),
		ctrl:   ctrl,
		theme:  theme,
		status: status,
	}
	if err := v.Refresh(); err != nil {
		return nil, err
	}

	v.Box.SetDrawFunc(v.draw)
	v.Box.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action != tview.MouseLeftClick {
			return action, event
		}
		if c, ok := v.CellAt(event.Position()); ok {
			v.MoveTo(c)
			return action, nil
		}
		return action, event
	})
	return v, nil
}

// SetGameOverFunc is called once for the turn that wins or loses the game
func (v *BoardView) SetGameOverFunc(f func(state *engine.GameState)) {
	v.onGameOver = f
}

// State returns the state being drawn
func (v *BoardView) State() *engine.GameState {
	return v.state
}

// Reason is why the last turn was rejected, empty after an accepted one
func (v *BoardView) Reason() string {
	return v.reason
}

// Refresh reloads the state from the controller
func (v *BoardView) Refresh() error {
	state, err := v.ctrl.State()
	if err != nil {
		return err
	}
	v.state = state
	v.refreshStatus()
	return nil
}

func (v *BoardView) Step(direction engine.Direction) {
	v.apply(v.ctrl.Step(direction))
}

func (v *BoardView) MoveTo(dest engine.Coordinate) {
	v.apply(v.ctrl.MoveTo(dest))
}

func (v *BoardView) Restart() {
	state, err := v.ctrl.Restart()
	if err != nil {
		v.reason = err.Error()
	} else {
		v.state = state
		v.reason = ""
	}
	v.refreshStatus()
}

func (v *BoardView) apply(result *service.MoveResult, err error) {
	if err != nil {
		v.reason = err.Error()
		v.refreshStatus()
		return
	}

	v.state = result.GameState
	v.reason = result.Reason
	v.refreshStatus()

	if result.Outcome.Terminal() && v.onGameOver != nil {
		v.onGameOver(v.state)
	}
}

// CellAt maps a screen position to the board cell drawn there. Each cell is
// two columns wide.
func (v *BoardView) CellAt(x, y int) (engine.Coordinate, bool) {
	if v.state == nil || x < v.originX || y < v.originY {
		return engine.Coordinate{}, false
	}
	c := engine.Coordinate{Row: y - v.originY, Column: (x - v.originX) / 2}
	if c.Row >= v.state.Rows || c.Column >= v.state.Columns {
		return engine.Coordinate{}, false
	}
	return c, true
}

func (v *BoardView) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	v.originX, v.originY = x+gutterWidth, y+rulerHeight
	if v.state == nil {
		return x, y, width, height
	}

	ruler := tcell.StyleDefault.Foreground(tcell.PaletteColor(v.theme.Colors.Ruler))
	for c := 0; c < v.state.Columns; c++ {
		screen.SetContent(v.originX+c*2, y, rune('0'+c%10), nil, ruler)
	}

	for r, line := range v.state.Layout {
		for i, ch := range fmt.Sprintf("%3d", r) {
			screen.SetContent(x+i, v.originY+r, ch, nil, ruler)
		}
		for c, ch := range []rune(line) {
			symbol, style := v.cellStyle(ch)
			fill := ' '
			if ch == '#' && v.theme.DrawWallBackground {
				fill = symbol
			}
			screen.SetContent(v.originX+c*2, v.originY+r, symbol, nil, style)
			screen.SetContent(v.originX+c*2+1, v.originY+r, fill, nil, style)
		}
	}

	return x, y, width, height
}

// cellStyle picks the symbol and style for one layout character
func (v *BoardView) cellStyle(ch rune) (rune, tcell.Style) {
	colors, symbols := v.theme.Colors, v.theme.Symbols
	base := tcell.StyleDefault.Background(tcell.PaletteColor(colors.Floor))

	switch ch {
	case '#':
		style := base.Foreground(tcell.PaletteColor(colors.Wall))
		if v.theme.DrawWallBackground {
			style = style.Background(tcell.PaletteColor(colors.Wall))
		}
		return symbols.Wall, style
	case 'C':
		return symbols.Box, base.Foreground(tcell.PaletteColor(colors.Box))
	case '*':
		return symbols.BoxOnTarget, base.Foreground(tcell.PaletteColor(colors.Solved))
	case 'X':
		return symbols.Target, base.Foreground(tcell.PaletteColor(colors.Target))
	case 'E', '+':
		style := base.Foreground(tcell.PaletteColor(colors.Actor)).Bold(true)
		if ch == '+' {
			style = style.Background(tcell.PaletteColor(colors.Target))
		}
		return v.actorSymbol(), style
	}
	return symbols.Floor, base
}

// actorSymbol points the forklift the way it last moved
func (v *BoardView) actorSymbol() rune {
	symbols := v.theme.Symbols
	switch v.state.LastDirection {
	case engine.Down:
		return symbols.ActorDown
	case engine.Left:
		return symbols.ActorLeft
	case engine.Right:
		return symbols.ActorRight
	}
	return symbols.ActorUp
}

func (v *BoardView) refreshStatus() {
	if v.status == nil || v.state == nil {
		return
	}
	s := v.state

	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n\n", s.LevelName)
	fmt.Fprintf(&b, "  Energy  %d/%d\n", s.Energy, s.MaxEnergy)
	fmt.Fprintf(&b, "  Boxes   %d/%d\n", s.BoxesOnTarget, len(s.Targets))
	fmt.Fprintf(&b, "  Moves   %d\n\n", s.Moves)

	switch s.Status {
	case engine.Won:
		b.WriteString("  [green]Solved![-]\n")
	case engine.Lost:
		b.WriteString("  [red]Out of energy[-]\n")
	}
	if v.reason != "" {
		fmt.Fprintf(&b, "  [red]%s[-]\n", tview.Escape(v.reason))
	}

	b.WriteString(`
  hjkl/↑↓←→ move   click step
         r restart   q quit`)
	v.status.SetText(b.String())
}

// directionForKey maps arrow keys and hjkl to a direction
func directionForKey(event *tcell.EventKey) (engine.Direction, bool) {
	switch event.Key() {
	case tcell.KeyUp:
		return engine.Up, true
	case tcell.KeyDown:
		return engine.Down, true
	case tcell.KeyLeft:
		return engine.Left, true
	case tcell.KeyRight:
		return engine.Right, true
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			return engine.Up, true
		case 'j':
			return engine.Down, true
		case 'h':
			return engine.Left, true
		case 'l':
			return engine.Right, true
		}
	}
	return "", false
}
