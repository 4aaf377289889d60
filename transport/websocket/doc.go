// Package websocket pushes game state to browsers and other watchers.
//
// A Hub keeps, per session, the set of connected clients. Each connection has
// a read pump (keepalive only, incoming messages are ignored) and a write pump
// that also sends pings.
//
// Message Protocol:
//
// Every frame is one JSON Message:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "won", "data": {...}}
//
// Clients pick their session with the query parameter ?session=ab12.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"), nil)
//	})
//
//	hub.BroadcastState(sessionID, state)
//
// Broadcasts never block: when the queue is full the message is dropped and
// logged.
package websocket
