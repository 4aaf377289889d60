// Package engine provides the core game logic for the forklift warehouse game.
//
// The engine package implements the game mechanics including:
//   - A two layer board: fixed terrain under movable boxes and the actor
//   - Push chains that move atomically or not at all
//   - Energy spending and win/lose evaluation
//   - Level text parsing and validation
//
// Core Types:
//
// Level describes a puzzle as loaded from disk. NewGame turns it into a Game,
// which owns a Board and a Mover. The Engine interface is the contract used
// by the service layer; GameState is the JSON snapshot handed to clients.
//
// Usage:
//
//	level, err := engine.ParseLevel(file)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewGame(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Move the forklift next to its current cell
//	outcome, err := game.AttemptTurn(engine.Coordinate{Row: 1, Column: 1})
//	state := game.GetState()
//
// Game Rules:
//
// The player drives a forklift (the actor) around a warehouse. Each turn it
// moves to one of its four neighbours, pushing any line of boxes ahead of it
// as long as the cell after the last box is free. Every successful move costs
// one unit of energy. The game is won when every target holds a box and lost
// once energy drops below zero. Moves that fail cost nothing.
package engine
