package engine

import "errors"

var (
	// Level format errors, fatal to loading
	ErrInvalidLevel      = errors.New("invalid level")
	ErrUnknownCell       = errors.New("unknown cell character")
	ErrMultipleActors    = errors.New("more than one actor")
	ErrNoActor           = errors.New("no actor")
	ErrBoxTargetMismatch = errors.New("boxes and targets do not match")

	// Turn rejections, recovered locally
	ErrIllegalMove      = errors.New("illegal move")
	ErrBlocked          = errors.New("movement blocked")
	ErrGameOver         = errors.New("game is over")
	ErrUnknownDirection = errors.New("unknown direction")
)
