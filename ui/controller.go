package ui

import (
	"context"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// Controller is what the board view drives. Every method answers with the
// state to draw next.
type Controller interface {
	State() (*engine.GameState, error)
	MoveTo(dest engine.Coordinate) (*service.MoveResult, error)
	Step(direction engine.Direction) (*service.MoveResult, error)
	Restart() (*engine.GameState, error)
}

type serviceController struct {
	svc       service.GameService
	sessionID string
}

// NewServiceController plays one session of a GameService
func NewServiceController(svc service.GameService, sessionID string) Controller {
	return &serviceController{svc: svc, sessionID: sessionID}
}

func (c *serviceController) State() (*engine.GameState, error) {
	return c.svc.GetGameState(context.Background(), c.sessionID)
}

func (c *serviceController) MoveTo(dest engine.Coordinate) (*service.MoveResult, error) {
	return c.svc.Move(context.Background(), c.sessionID, service.Destination(dest))
}

func (c *serviceController) Step(direction engine.Direction) (*service.MoveResult, error) {
	return c.svc.Move(context.Background(), c.sessionID, service.Toward(direction))
}

func (c *serviceController) Restart() (*engine.GameState, error) {
	return c.svc.Restart(context.Background(), c.sessionID)
}
