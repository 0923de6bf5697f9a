package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/people-api/backend/internal/model/person"
	"github.com/zhouzirui/people-api/backend/internal/service/directory"
	"github.com/zhouzirui/people-api/backend/internal/service/feed"
)

func newTestRouter(hub *feed.Hub) http.Handler {
	dir := directory.New(
		directory.WithSeed(person.Seed(time.Now())),
		directory.WithPublisher(hub),
	)
	return NewRouter(dir, hub, Options{FeedBuffer: 4})
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(feed.NewHub())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Status string `json:"status"`
		People int    `json:"people"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.Status != "ok" || body.People != 3 {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestRouterServesPeopleWithCORS(t *testing.T) {
	r := newTestRouter(feed.NewHub())

	req := httptest.NewRequest(http.MethodPost, "/api/people", strings.NewReader(`{"lname":"Zorn","fname":"Bob"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS header, got %v", rr.Header())
	}
}

func TestRouterWithoutHubSkipsFeed(t *testing.T) {
	dir := directory.New()
	r := NewRouter(dir, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without hub, got %d", rr.Code)
	}
}

func TestUnsupportedMethod(t *testing.T) {
	r := newTestRouter(feed.NewHub())

	req := httptest.NewRequest(http.MethodPatch, "/api/people/Farrell", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
