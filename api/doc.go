// Package api provides the HTTP REST API for the forklift puzzle game.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session, body {"level": "classic"} (optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - One turn, {"direction":"up"} or {"row":1,"column":2}
//   - POST /api/sessions/{id}/bulk-move - Up to 50 turns, {"moves":["up","left"],"reset":false}
//   - POST /api/sessions/{id}/restart - Start the level over
//   - GET /api/sessions/{id}/history - Move history (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/hint - Next move from the solver
//
// Levels:
//   - GET /api/levels - Level catalogue
//   - POST /api/levels - Save a level
//   - GET /api/levels/{name} - Level definition
//   - GET /api/levels/{name}/scores - Finished games, best first (?limit=10)
//
// WebSocket:
//   - GET /ws?session={id} - State updates for a session
//
// A rejected turn is not an HTTP error: the move endpoints answer 200 with
// success=false, outcome "rejected" and a reason. HTTP errors use
//
//	{"error": "session ab12: session not found"}
//
// with 404 for unknown sessions or levels, 400 for malformed requests and
// invalid levels, and 500 otherwise.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
