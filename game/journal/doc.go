// Package journal records finished games in SQLite and serves per-level
// leaderboards.
//
// Only the summary of a game is kept (level, outcome, moves, energy left).
// Boards are never stored, so a journal entry cannot be resumed.
//
// Usage:
//
//	store, err := journal.OpenSQLite("data/journal.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	top, err := store.Leaderboard(ctx, "classic", 10)
package journal
