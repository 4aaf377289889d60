// Package service provides the business logic layer for the forklift game.
//
// The service package implements:
//   - Multi-session game management
//   - Move processing, by destination cell or by direction
//   - Bulk moves with a per-step trace
//   - Hints backed by the solver
//   - Level catalogue access and the finished-game leaderboard
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads and stores levels.
// Journal keeps a record of every finished game.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP, the
// terminal UI) and the game engine. Each session owns one engine.Game; a
// restart throws it away and builds a new one from the session's level.
//
// Usage:
//
//	sessions := session.NewManager()
//	levels, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := service.NewGameService(sessions, levels, service.WithJournal(store))
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.Move(ctx, info.ID, service.Toward(engine.Up))
//
// A rejected turn is not an error: Move returns a result with Outcome
// engine.Rejected and the reason. Errors are reserved for unknown sessions,
// malformed requests and failures below the service.
package service
