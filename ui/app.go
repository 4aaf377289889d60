package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/wricardo/sokoban/game/engine"
)

// Run plays ctrl's game in the terminal until the player quits
func Run(ctrl Controller, theme *Theme) error {
	app := tview.NewApplication()
	rootPage := tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ▣ sokoban ")

	status := tview.NewTextView().SetDynamicColors(true)
	status.SetBorder(true)
	status.SetBorderPadding(0, 0, 1, 1)
	status.SetTitle(" Status ")
	status.SetTitleAlign(tview.AlignLeft)

	board, err := NewBoardView(ctrl, theme, status)
	if err != nil {
		return err
	}

	state := board.State()
	layout := tview.NewFlex().
		AddItem(board.Box, gutterWidth+state.Columns*2+2, 0, true).
		AddItem(status, 0, 1, false)
	rootPage.AddPage("game", layout, true, true)

	showModal := func(name, text string, buttons []string, done func(label string)) {
		modal := tview.NewModal().
			SetText(text).
			AddButtons(buttons).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				rootPage.RemovePage(name)
				app.SetFocus(board.Box)
				done(buttonLabel)
			})
		rootPage.AddPage(name, modal, true, true)
		app.SetFocus(modal)
	}

	board.SetGameOverFunc(func(state *engine.GameState) {
		text := fmt.Sprintf("Out of energy after %d moves.", state.Moves)
		if state.Status == engine.Won {
			text = fmt.Sprintf("Solved in %d moves with %d energy left!", state.Moves, state.Energy)
		}
		showModal("gameover", text, []string{"Restart", "Quit"}, func(label string) {
			switch label {
			case "Quit":
				app.Stop()
			case "Restart":
				board.Restart()
			}
		})
	})

	board.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if d, ok := directionForKey(event); ok {
			board.Step(d)
			return nil
		}
		if event.Key() == tcell.KeyEsc {
			app.Stop()
			return nil
		}
		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'r':
			showModal("restart", "Restart the level?", []string{"Restart", "Cancel"}, func(label string) {
				if label == "Restart" {
					board.Restart()
				}
			})
			return nil
		}
		return event
	})

	return app.SetRoot(rootPage, true).EnableMouse(true).Run()
}
