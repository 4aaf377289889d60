package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStore_RecordGame(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	rec := service.GameRecord{
		SessionID:  "ab12",
		Level:      "classic",
		Outcome:    engine.Won,
		Moves:      12,
		EnergyLeft: 0,
	}
	if err := store.RecordGame(ctx, rec); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		id, session, level, outcome string
		moves, energy               int
	)
	row := db.QueryRow(`SELECT id, session_id, level, outcome, moves, energy_left FROM games`)
	if err := row.Scan(&id, &session, &level, &outcome, &moves, &energy); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Expected a generated uuid, got %q", id)
	}
	if session != "ab12" || level != "classic" || outcome != "won" || moves != 12 || energy != 0 {
		t.Fatalf("row mismatch: session=%s level=%s outcome=%s moves=%d energy=%d", session, level, outcome, moves, energy)
	}
}

func TestSQLiteStore_RejectsUnfinishedGames(t *testing.T) {
	store, _ := openTestStore(t)

	for _, outcome := range []engine.Outcome{engine.Ongoing, engine.Rejected} {
		err := store.RecordGame(context.Background(), service.GameRecord{Level: "classic", Outcome: outcome})
		if err == nil {
			t.Errorf("Expected error recording a %s game", outcome)
		}
	}
}

func TestSQLiteStore_Leaderboard(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []service.GameRecord{
		{ID: "slow", Level: "classic", Outcome: engine.Won, Moves: 20, EnergyLeft: 0, FinishedAt: base},
		{ID: "fast-late", Level: "classic", Outcome: engine.Won, Moves: 12, EnergyLeft: 0, FinishedAt: base.Add(2 * time.Hour)},
		{ID: "fast-early", Level: "classic", Outcome: engine.Won, Moves: 12, EnergyLeft: 0, FinishedAt: base.Add(time.Hour)},
		{ID: "fast-spare", Level: "classic", Outcome: engine.Won, Moves: 12, EnergyLeft: 3, FinishedAt: base.Add(3 * time.Hour)},
		{ID: "lost", Level: "classic", Outcome: engine.Lost, Moves: 5, EnergyLeft: -1, FinishedAt: base},
		{ID: "other", Level: "tutorial", Outcome: engine.Won, Moves: 1, EnergyLeft: 2, FinishedAt: base},
	}
	for _, rec := range records {
		if err := store.RecordGame(ctx, rec); err != nil {
			t.Fatalf("RecordGame(%s): %v", rec.ID, err)
		}
	}

	top, err := store.Leaderboard(ctx, "classic", 0)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}

	want := []string{"fast-spare", "fast-early", "fast-late", "slow"}
	if len(top) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i+1, id, top[i].ID)
		}
	}
	if !top[1].FinishedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("FinishedAt not preserved: %v", top[1].FinishedAt)
	}

	limited, err := store.Leaderboard(ctx, "classic", 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 records with limit, got %d", len(limited))
	}

	empty, err := store.Leaderboard(ctx, "missing", 5)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected an empty, non-nil slice, got %v", empty)
	}

	lost, err := store.Count(ctx, "classic", engine.Lost)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if lost != 1 {
		t.Errorf("Expected 1 lost game, got %d", lost)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	store, _ := openTestStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	err := store.RecordGame(context.Background(), service.GameRecord{Level: "classic", Outcome: engine.Won})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := store.Leaderboard(context.Background(), "classic", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
