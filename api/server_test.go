package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, levelName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	MoveFunc     func(ctx context.Context, sessionID string, req service.MoveRequest) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	RestartFunc  func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	HintFunc           func(ctx context.Context, sessionID string) (*service.HintResult, error)

	// Levels
	ListLevelsFunc  func(ctx context.Context) ([]*service.LevelInfo, error)
	LoadLevelFunc   func(ctx context.Context, levelName string) (*engine.Level, error)
	SaveLevelFunc   func(ctx context.Context, levelName string, level *engine.Level) error
	LeaderboardFunc func(ctx context.Context, levelName string, limit int) ([]*service.GameRecord, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, levelName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, levelName)
	}
	return &service.SessionInfo{ID: "test-session", LevelName: levelName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, LevelName: "test-level", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID string, req service.MoveRequest) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, req)
	}
	return &service.MoveResult{Success: true, Outcome: engine.Ongoing, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) Hint(ctx context.Context, sessionID string) (*service.HintResult, error) {
	if m.HintFunc != nil {
		return m.HintFunc(ctx, sessionID)
	}
	return &service.HintResult{}, nil
}

func (m *MockGameService) ListLevels(ctx context.Context) ([]*service.LevelInfo, error) {
	if m.ListLevelsFunc != nil {
		return m.ListLevelsFunc(ctx)
	}
	return []*service.LevelInfo{}, nil
}

func (m *MockGameService) LoadLevel(ctx context.Context, levelName string) (*engine.Level, error) {
	if m.LoadLevelFunc != nil {
		return m.LoadLevelFunc(ctx, levelName)
	}
	return &engine.Level{Name: levelName}, nil
}

func (m *MockGameService) SaveLevel(ctx context.Context, levelName string, level *engine.Level) error {
	if m.SaveLevelFunc != nil {
		return m.SaveLevelFunc(ctx, levelName, level)
	}
	return nil
}

func (m *MockGameService) Leaderboard(ctx context.Context, levelName string, limit int) ([]*service.GameRecord, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, levelName, limit)
	}
	return []*service.GameRecord{}, nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService service.GameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session ab12: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: nope", service.ErrLevelNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: row and column", service.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", config.ErrInvalidLevel, engine.ErrNoActor), http.StatusBadRequest},
		{engine.ErrBoxTargetMismatch, http.StatusBadRequest},
		{fmt.Errorf("database error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default level",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, levelName string) (*service.SessionInfo, error) {
					if levelName != "" {
						t.Errorf("Expected empty level name, got %s", levelName)
					}
					return &service.SessionInfo{ID: "sess-123", LevelName: "classic", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" || resp.LevelName != "classic" {
					t.Errorf("Unexpected session %+v", resp)
				}
			},
		},
		{
			name:        "Create session with specific level",
			requestBody: map[string]string{"level": "tutorial"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, levelName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "sess-456", LevelName: levelName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.LevelName != "tutorial" {
					t.Errorf("Expected level 'tutorial', got %s", resp.LevelName)
				}
			},
		},
		{
			name:           "Malformed body",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown level",
			requestBody: map[string]string{"level": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, levelName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: 'missing'", service.ErrLevelNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, levelName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if got := errorOf(t, w); got != "service error" {
					t.Errorf("Expected error message 'service error', got %s", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
				{ID: "mid", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
				{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		query string
		want  []string
		total int
	}{
		{"", []string{"old", "new", "mid"}, 3},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"?sort=created&limit=2", []string{"new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Count != len(tt.want) || resp.Total != tt.total {
				t.Errorf("count=%d total=%d, want %d/%d", resp.Count, resp.Total, len(tt.want), tt.total)
			}
			for i, id := range tt.want {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: got %s, want %s", i, resp.Sessions[i].ID, id)
				}
			}
		})
	}

	t.Run("service error", func(t *testing.T) {
		failing := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		w := httptest.NewRecorder()
		setupTestServer(t, failing).ServeHTTP(w, makeRequest("GET", "/api/sessions", nil))
		if w.Code != http.StatusInternalServerError || errorOf(t, w) != "database error" {
			t.Errorf("Expected 500 database error, got %d %s", w.Code, w.Body.String())
		}
	})
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "sess-123" {
				return nil, fmt.Errorf("session %s: %w", sessionID, service.ErrSessionNotFound)
			}
			return &service.SessionInfo{ID: sessionID, LevelName: "classic"}, nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("existing session", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := mux.SetURLVars(makeRequest("GET", "/api/sessions/sess-123", nil), map[string]string{"id": "sess-123"})
		server.handleGetSession(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var resp service.SessionInfo
		parseResponse(t, w, &resp)
		if resp.ID != "sess-123" {
			t.Errorf("Expected session ID sess-123, got %s", resp.ID)
		}
	})

	t.Run("session not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/nonexistent", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
		if got := errorOf(t, w); got != "session nonexistent: session not found" {
			t.Errorf("Unexpected error %q", got)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	deleted := ""
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return service.ErrSessionNotFound
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK || deleted != "ab12" {
		t.Errorf("Expected ab12 deleted with 200, got %d (%s)", w.Code, deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		moveErr        error
		expectedStatus int
		check          func(*testing.T, service.MoveRequest)
	}{
		{
			name:           "direction",
			body:           `{"direction":"up"}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, req service.MoveRequest) {
				if req.Direction != "up" || req.Row != nil {
					t.Errorf("Unexpected request %+v", req)
				}
			},
		},
		{
			name:           "destination",
			body:           `{"row":1,"column":2,"reset":true}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, req service.MoveRequest) {
				if req.Row == nil || *req.Row != 1 || req.Column == nil || *req.Column != 2 || !req.Reset {
					t.Errorf("Unexpected request %+v", req)
				}
			},
		},
		{
			name:           "invalid body",
			body:           `{"direction":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid request",
			body:           `{}`,
			moveErr:        fmt.Errorf("%w: row/column or direction is required", service.ErrInvalidRequest),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown session",
			body:           `{"direction":"up"}`,
			moveErr:        service.ErrSessionNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.MoveRequest
			mockService := &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID string, req service.MoveRequest) (*service.MoveResult, error) {
					got = req
					if tt.moveErr != nil {
						return nil, tt.moveErr
					}
					return &service.MoveResult{
						Outcome:   engine.Ongoing,
						Success:   true,
						GameState: &engine.GameState{Energy: 9},
						Step:      &service.StepInfo{Idx: 1, Dir: engine.Up},
					}, nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/sessions/ab12/move", strings.NewReader(tt.body))
			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	mockService := &MockGameService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
			if sessionID == "missing" {
				return nil, service.ErrSessionNotFound
			}
			return &service.BulkMoveResult{
				MovesExecuted:  len(moves),
				RequestedMoves: len(moves),
				Success:        true,
				Outcome:        engine.Won,
				StopReasonCode: "won",
				GameState:      &engine.GameState{Status: engine.Won},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{"moves": []string{"up", "up"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	if resp.MovesExecuted != 2 || resp.StopReasonCode != "won" {
		t.Errorf("Unexpected result %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/missing/bulk-move", map[string]interface{}{"moves": []string{"up"}}))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions/ab12/bulk-move", strings.NewReader("[")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestRestart(t *testing.T) {
	mockService := &MockGameService{
		RestartFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.GameState{Energy: 12, MaxEnergy: 12, Status: engine.Ongoing}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/restart", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.Energy != 12 {
		t.Errorf("Unexpected restart response %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/missing/restart", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		query string
		want  service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}}, nil
				},
			}
			w := httptest.NewRecorder()
			setupTestServer(t, mockService).ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if got != tt.want {
				t.Errorf("Options = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGetGameStateAndHint(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{LevelName: "classic", Energy: 7}, nil
		},
		HintFunc: func(ctx context.Context, sessionID string) (*service.HintResult, error) {
			return &service.HintResult{Solvable: true, Direction: engine.Left, MovesNeeded: 4}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
	var state engine.GameState
	parseResponse(t, w, &state)
	if state.LevelName != "classic" || state.Energy != 7 {
		t.Errorf("Unexpected state %+v", state)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/hint", nil))
	var hint service.HintResult
	parseResponse(t, w, &hint)
	if !hint.Solvable || hint.Direction != engine.Left || hint.MovesNeeded != 4 {
		t.Errorf("Unexpected hint %+v", hint)
	}
}

// Level Tests

func TestLevels(t *testing.T) {
	var saved *engine.Level
	var scoreLimit int
	mockService := &MockGameService{
		ListLevelsFunc: func(ctx context.Context) ([]*service.LevelInfo, error) {
			return []*service.LevelInfo{{LevelID: "classic", MaxEnergy: 12}}, nil
		},
		LoadLevelFunc: func(ctx context.Context, name string) (*engine.Level, error) {
			if name != "classic" {
				return nil, fmt.Errorf("%w: %s", service.ErrLevelNotFound, name)
			}
			return &engine.Level{Name: name, MaxEnergy: 12}, nil
		},
		SaveLevelFunc: func(ctx context.Context, name string, level *engine.Level) error {
			if err := level.Validate(); err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalidLevel, err)
			}
			saved = level
			return nil
		},
		LeaderboardFunc: func(ctx context.Context, name string, limit int) ([]*service.GameRecord, error) {
			scoreLimit = limit
			return []*service.GameRecord{{Level: name, Outcome: engine.Won, Moves: 12}}, nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels", nil))
		var levels []*service.LevelInfo
		parseResponse(t, w, &levels)
		if len(levels) != 1 || levels[0].LevelID != "classic" {
			t.Errorf("Unexpected levels %+v", levels)
		}
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels/classic", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels/missing", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("create", func(t *testing.T) {
		level := engine.Level{
			Name:      "mine",
			MaxEnergy: 3,
			Rows:      1,
			Columns:   3,
			Layout:    []string{"ECX"},
		}
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/levels", level))
		if w.Code != http.StatusCreated || saved == nil || saved.Name != "mine" {
			t.Fatalf("Expected level saved with 201, got %d %s", w.Code, w.Body.String())
		}

		level.Layout = []string{"CCX"}
		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/levels", level))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for invalid level, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/levels", engine.Level{}))
		if w.Code != http.StatusBadRequest || errorOf(t, w) != "Level name is required" {
			t.Errorf("Expected name required, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("scores", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels/classic/scores?limit=3", nil))
		var resp struct {
			Level  string                `json:"level"`
			Scores []*service.GameRecord `json:"scores"`
		}
		parseResponse(t, w, &resp)
		if resp.Level != "classic" || len(resp.Scores) != 1 || scoreLimit != 3 {
			t.Errorf("Unexpected scores %+v (limit %d)", resp, scoreLimit)
		}
	})
}

// WebSocket Tests

func TestWebSocket(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.GameState{LevelName: "classic", Energy: 12}, nil
		},
		MoveFunc: func(ctx context.Context, sessionID string, req service.MoveRequest) (*service.MoveResult, error) {
			return &service.MoveResult{
				Outcome:   engine.Won,
				Success:   true,
				GameState: &engine.GameState{LevelName: "classic", Status: engine.Won, Energy: 0, Moves: 12},
			}, nil
		},
	}
	server := httptest.NewServer(setupTestServer(t, mockService))
	defer server.Close()

	t.Run("missing session parameter", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ws")
		if err != nil {
			t.Fatalf("GET /ws: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ws?session=zz99")
		if err != nil {
			t.Fatalf("GET /ws: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("state then won event", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?session=ab12"
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var initial websocket.Message
		if err := conn.ReadJSON(&initial); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if initial.Event != websocket.EventStateUpdate || initial.GameState.Energy != 12 {
			t.Errorf("Unexpected initial message %+v", initial)
		}

		resp, err := http.Post(server.URL+"/api/sessions/ab12/move", "application/json", strings.NewReader(`{"direction":"up"}`))
		if err != nil {
			t.Fatalf("POST move: %v", err)
		}
		resp.Body.Close()

		var update, event websocket.Message
		if err := conn.ReadJSON(&update); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if update.GameState == nil || update.GameState.Status != engine.Won {
			t.Errorf("Unexpected update %+v", update)
		}
		if event.Event != websocket.EventWon {
			t.Errorf("Expected won event, got %+v", event)
		}
	})
}

// End to end with the real service stack

func TestServer_PlayTutorial(t *testing.T) {
	dir := t.TempDir()
	tutorial := "3\n5\n4\n#X##\n#C #\n#E #\n#  #\n####\n"
	if err := os.WriteFile(filepath.Join(dir, "tutorial.txt"), []byte(tutorial), 0o644); err != nil {
		t.Fatalf("write level: %v", err)
	}
	levels, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), levels)
	server := setupTestServer(t, svc)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions", map[string]string{"level": "tutorial"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+info.ID+"/move", map[string]int{"row": 2, "column": 2}))
	var sideways service.MoveResult
	parseResponse(t, w, &sideways)
	if !sideways.Success || sideways.GameState.Energy != 2 {
		t.Fatalf("Expected step right to succeed, got %+v", sideways)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+info.ID+"/bulk-move", map[string]interface{}{
		"moves": []string{"left", "up"},
	}))
	var bulk service.BulkMoveResult
	parseResponse(t, w, &bulk)
	if bulk.Outcome != engine.Won || bulk.EndEnergy != 0 || bulk.MovesExecuted != 2 {
		t.Fatalf("Expected a win on the last unit of energy, got %+v", bulk)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+info.ID+"/move", map[string]string{"direction": "down"}))
	var after service.MoveResult
	parseResponse(t, w, &after)
	if after.Outcome != engine.Rejected || after.Success {
		t.Errorf("Expected turns after the win to be rejected, got %+v", after)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/nope/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

func TestWebSocket_SessionIDIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	tutorial := "3\n5\n4\n#X##\n#C #\n#E #\n#  #\n####\n"
	if err := os.WriteFile(filepath.Join(dir, "tutorial.txt"), []byte(tutorial), 0o644); err != nil {
		t.Fatalf("write level: %v", err)
	}
	levels, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), levels)
	info, err := svc.CreateSession(t.Context(), "tutorial")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	server := httptest.NewServer(setupTestServer(t, svc))
	defer server.Close()

	subscribe := func(id string) *gorillaws.Conn {
		t.Helper()
		conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws?session="+id, nil)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var initial websocket.Message
		if err := conn.ReadJSON(&initial); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if initial.GameState == nil || initial.GameState.Energy != 3 {
			t.Fatalf("Unexpected initial message %+v", initial)
		}
		return conn
	}

	upper := subscribe(strings.ToUpper(info.ID))
	defer upper.Close()
	lower := subscribe(info.ID)
	defer lower.Close()

	resp, err := http.Post(server.URL+"/api/sessions/"+info.ID+"/move", "application/json", strings.NewReader(`{"direction":"right"}`))
	if err != nil {
		t.Fatalf("POST move: %v", err)
	}
	resp.Body.Close()

	// Neither subscriber sees the other's initial snapshot, only the move
	for name, conn := range map[string]*gorillaws.Conn{"upper": upper, "lower": lower} {
		var update websocket.Message
		if err := conn.ReadJSON(&update); err != nil {
			t.Fatalf("%s subscriber: ReadJSON: %v", name, err)
		}
		if update.GameState == nil || update.GameState.Energy != 2 {
			t.Errorf("%s subscriber: expected the move update, got %+v", name, update)
		}
	}
}
