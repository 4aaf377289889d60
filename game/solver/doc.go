// Package solver finds the shortest winning move sequence for a board.
//
// The search is breadth-first over positions of the actor and the boxes,
// expanding each position with the engine's own Mover on a cloned board, so
// the rules it explores are exactly the rules the game enforces. Boxes pushed
// into a corner away from any target are pruned.
//
// It backs level validation (is a level winnable with its energy?) and the
// hint endpoint (what is the next move from here?).
package solver
