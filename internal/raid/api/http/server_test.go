package http

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/extraction.zone/internal/raid/service"
	"github.com/louisbranch/extraction.zone/internal/raid/storage/sqlite"
	"github.com/louisbranch/extraction.zone/internal/raid/token"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "raid.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	svc, err := service.New(context.Background(), store, token.Config{
		Issuer:   "extraction.zone",
		Audience: "raid-events",
		Private:  priv,
		Public:   pub,
		TTL:      token.DefaultTTL,
		Now:      time.Now,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	mux := http.NewServeMux()
	NewServer(svc).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	payload := map[string]any{}
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode %s %s response: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, payload
}

func errorCode(t *testing.T, payload map[string]any) string {
	t.Helper()
	wrapped, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error envelope in %v", payload)
	}
	code, _ := wrapped["code"].(string)
	return code
}

func TestStartAndStateRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	rec, payload := doJSON(t, mux, http.MethodPost, "/api/raid/start", `{"player_key":"p1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["status"] != "in_raid" {
		t.Fatalf("unexpected start payload: %v", payload)
	}

	rec, payload = doJSON(t, mux, http.MethodGet, "/api/raid/state?player_key=p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("state = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["status"] != "in_raid" {
		t.Fatalf("unexpected state payload: %v", payload)
	}
}

func TestDoubleStartMapsToConflict(t *testing.T) {
	mux := newTestMux(t)

	doJSON(t, mux, http.MethodPost, "/api/raid/start", `{"player_key":"p1"}`)
	rec, payload := doJSON(t, mux, http.MethodPost, "/api/raid/start", `{"player_key":"p1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if errorCode(t, payload) != "ALREADY_IN_RAID" {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestAttackOutsideRaidMapsToConflict(t *testing.T) {
	mux := newTestMux(t)

	rec, payload := doJSON(t, mux, http.MethodPost, "/api/raid/attack", `{"player_key":"p1","kind":"melee"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if errorCode(t, payload) != "NOT_IN_RAID" {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestInvalidAttackKindMapsToBadRequest(t *testing.T) {
	mux := newTestMux(t)

	rec, payload := doJSON(t, mux, http.MethodPost, "/api/raid/attack", `{"player_key":"p1","kind":"psychic"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if errorCode(t, payload) != "INVALID_ATTACK_KIND" {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	mux := newTestMux(t)

	rec, _ := doJSON(t, mux, http.MethodPost, "/api/raid/start", `{"player_key":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostOnlyEndpointsRejectGet(t *testing.T) {
	mux := newTestMux(t)

	rec, _ := doJSON(t, mux, http.MethodGet, "/api/raid/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	rec, _ = doJSON(t, mux, http.MethodPost, "/api/raid/state", `{"player_key":"p1"}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestExploreChooseOverHTTP(t *testing.T) {
	mux := newTestMux(t)

	doJSON(t, mux, http.MethodPost, "/api/raid/start", `{"player_key":"p1"}`)
	rec, payload := doJSON(t, mux, http.MethodPost, "/api/raid/explore", `{"player_key":"p1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("explore = %d: %s", rec.Code, rec.Body.String())
	}
	tokenValue, _ := payload["token"].(string)
	if tokenValue == "" {
		t.Fatalf("no token in explore payload: %v", payload)
	}
	eventPayload, _ := payload["event"].(map[string]any)
	choices, _ := eventPayload["choices"].([]any)
	if len(choices) == 0 {
		t.Fatalf("no choices in explore payload: %v", payload)
	}
	first, _ := choices[0].(map[string]any)
	choiceID, _ := first["id"].(string)

	body, err := json.Marshal(map[string]string{
		"player_key": "p1",
		"token":      tokenValue,
		"choice_id":  choiceID,
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, _ = doJSON(t, mux, http.MethodPost, "/api/raid/choose", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("choose = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStarterGrantOverHTTP(t *testing.T) {
	mux := newTestMux(t)

	rec, payload := doJSON(t, mux, http.MethodPost, "/api/raid/starter", `{"player_key":"p1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("starter = %d: %s", rec.Code, rec.Body.String())
	}
	if payload["melee_instance"] == "" {
		t.Fatalf("no melee granted: %v", payload)
	}

	rec, payload = doJSON(t, mux, http.MethodPost, "/api/raid/starter", `{"player_key":"p1"}`)
	if rec.Code != http.StatusConflict || errorCode(t, payload) != "STARTER_ALREADY_GRANTED" {
		t.Fatalf("expected starter conflict, got %d: %s", rec.Code, rec.Body.String())
	}
}
