package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"minichess/internal/auth"
	"minichess/internal/handlers"
	"minichess/internal/middleware"
	"minichess/internal/models"
	"minichess/internal/storage"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtService := auth.NewJWTService("test-secret", time.Hour)
	limiter := middleware.NewRateLimiter()
	t.Cleanup(limiter.Stop)

	feed := handlers.NewFeedHandler()
	router := NewRouter(handlers.NewRecordHandler(store, feed), feed, middleware.NewAuthMiddleware(jwtService), limiter, 100)

	ts := &testServer{t: t, router: router, tokens: map[string]string{}}
	for _, user := range []string{"u1", "u2"} {
		token, err := jwtService.GenerateAccessToken(user, "")
		if err != nil {
			t.Fatal(err)
		}
		ts.tokens[user] = token
	}
	return ts
}

func (ts *testServer) do(method, path, user string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[user])
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return string(resp.Message)
}

func decodeRecord(t *testing.T, rr *httptest.ResponseRecorder) models.GameRecord {
	t.Helper()
	var rec models.GameRecord
	if err := json.NewDecoder(rr.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec
}

func newGame(result string) map[string]interface{} {
	return map[string]interface{}{
		"result":  result,
		"history": []map[string]string{{"move": "c3"}, {"move": "Nxa4"}},
	}
}

func TestRecordsLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodPost, "/api/v1/games", "u1", newGame("win"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeRecord(t, rr)
	if created.UserID != "u1" || created.ID.IsZero() || len(created.History) != 2 {
		t.Fatalf("unexpected record %+v", created)
	}
	id := created.ID.Hex()

	rr = ts.do(http.MethodGet, "/api/v1/games", "", nil)
	var all []models.GameRecord
	if err := json.NewDecoder(rr.Body).Decode(&all); err != nil || len(all) != 1 {
		t.Fatalf("list: %d records, %v", len(all), err)
	}

	if rr = ts.do(http.MethodGet, "/api/v1/games/user/u1", "", nil); rr.Code != http.StatusOK {
		t.Errorf("list by user: status %d", rr.Code)
	}

	rr = ts.do(http.MethodGet, "/api/v1/games/"+id, "", nil)
	if rr.Code != http.StatusOK || decodeRecord(t, rr).Result != models.ResultWin {
		t.Errorf("get: status %d", rr.Code)
	}

	rr = ts.do(http.MethodPatch, "/api/v1/games/"+id, "u1", map[string]string{"result": "draw"})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: status %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeRecord(t, rr); got.Result != models.ResultDraw || len(got.History) != 2 {
		t.Errorf("patch result %+v", got)
	}

	rr = ts.do(http.MethodDelete, "/api/v1/games/"+id, "u1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rr.Code)
	}
	if msg := decodeMessage(t, rr); msg != `"Game deleted successfully"` {
		t.Errorf("delete message %s", msg)
	}

	rr = ts.do(http.MethodGet, "/api/v1/games/"+id, "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rr.Code)
	}
	if msg := decodeMessage(t, rr); !strings.Contains(msg, "Game with id "+id+" not found") {
		t.Errorf("not found message %s", msg)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		user       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{"no token", "", newGame("win"), http.StatusUnauthorized, ""},
		{"bad result", "u1", newGame("resigned"), http.StatusBadRequest, "Result must be either win, lose, or draw"},
		{"missing result", "u1", map[string]interface{}{"history": []interface{}{}}, http.StatusBadRequest, "Result is required"},
		{
			"empty history move", "u1",
			map[string]interface{}{"result": "lose", "history": []map[string]string{{"move": ""}}},
			http.StatusBadRequest, "history[0].move is required",
		},
		{
			"someone else's game", "u1",
			map[string]interface{}{"user": "u2", "result": "win", "history": []interface{}{}},
			http.StatusForbidden, "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(http.MethodPost, "/api/v1/games", tt.user, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantMsg != "" {
				if msg := decodeMessage(t, rr); !strings.Contains(msg, tt.wantMsg) {
					t.Errorf("message %s does not mention %q", msg, tt.wantMsg)
				}
			}
		})
	}
}

func TestRecordsNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/api/v1/games/user/nobody", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
	if msg := decodeMessage(t, rr); msg != `"No games found for this user"` {
		t.Errorf("message %s", msg)
	}

	if rr := ts.do(http.MethodGet, "/api/v1/games/not-an-id", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid id: status %d", rr.Code)
	}
	if rr := ts.do(http.MethodDelete, "/api/v1/games/65a000000000000000000000", "u1", nil); rr.Code != http.StatusNotFound {
		t.Errorf("delete unknown: status %d", rr.Code)
	}
}

func TestRecordsOwnership(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodPost, "/api/v1/games", "u1", newGame("lose"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rr.Code)
	}
	id := decodeRecord(t, rr).ID.Hex()

	if rr := ts.do(http.MethodPatch, "/api/v1/games/"+id, "u2", map[string]string{"result": "win"}); rr.Code != http.StatusForbidden {
		t.Errorf("foreign patch: status %d", rr.Code)
	}
	if rr := ts.do(http.MethodDelete, "/api/v1/games/"+id, "u2", nil); rr.Code != http.StatusForbidden {
		t.Errorf("foreign delete: status %d", rr.Code)
	}
	if rr := ts.do(http.MethodPatch, "/api/v1/games/"+id, "u1", map[string]string{"result": "maybe"}); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid patch: status %d", rr.Code)
	}
	if rr := ts.do(http.MethodDelete, "/api/v1/games/"+id, "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous delete: status %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("health: %d %q", rr.Code, rr.Body.String())
	}
}
