package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/auth"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/promotion"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store/gormstore"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/metrics"
)

type testServer struct {
	router http.Handler
	token  string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gormstore.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	s := gormstore.New(db)
	m := metrics.NewManager()

	promoter := promotion.New(s, promotion.WithLogger(logger.Nop()), promotion.WithMetrics(m))
	l := ledger.New(s,
		ledger.WithLogger(logger.Nop()),
		ledger.WithMetrics(m),
		ledger.WithRemovalListener(promoter),
	)
	tables, err := scoring.Default()
	if err != nil {
		t.Fatalf("Default tables failed: %v", err)
	}
	ranker := matching.NewRanker(s, scoring.NewEngine(tables), matching.WithLogger(logger.Nop()), matching.WithMetrics(m))

	authHandler := auth.NewAuthHandler(&config.Config{JWTSecret: "test-secret"})
	token, err := authHandler.GenerateToken("ops@circuit", auth.RoleOperator, 0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, authHandler, NewHandler(s, l, ranker), m)
	return &testServer{router: r, token: token}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, operator bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if operator {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createEvent(t *testing.T, men, women int) models.Event {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/events", map[string]any{
		"title":       "Friday mixer",
		"starts_at":   "2026-11-06T19:00:00Z",
		"men_spots":   men,
		"women_spots": women,
	}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating event, got %d: %s", rr.Code, rr.Body.String())
	}
	var ev models.Event
	if err := json.Unmarshal(rr.Body.Bytes(), &ev); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	return ev
}

func (ts *testServer) putProfile(t *testing.T, id, g, pref string, credits int) {
	t.Helper()
	rr := ts.do(t, http.MethodPut, "/users/"+id+"/profile", map[string]any{
		"gender":          g,
		"preference":      pref,
		"dates_remaining": credits,
	}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 syncing profile, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupServer(t)

	rr := ts.do(t, http.MethodGet, "/health", nil, false)
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("unexpected health response: %d %q", rr.Code, rr.Body.String())
	}

	rr = ts.do(t, http.MethodGet, "/metrics", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Errorf("expected http request counter in exposition, got:\n%s", rr.Body.String())
	}
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	ts := setupServer(t)

	rr := ts.do(t, http.MethodPost, "/events", map[string]any{"title": "x", "starts_at": "2026-11-06T19:00:00Z", "men_spots": 1, "women_spots": 1}, false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}
	rr = ts.do(t, http.MethodPut, "/users/u1/profile", map[string]any{"gender": "male", "preference": "women", "dates_remaining": 1}, false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}
}

func TestSignupWaitlistAndPromotion(t *testing.T) {
	ts := setupServer(t)
	ev := ts.createEvent(t, 1, 1)
	ts.putProfile(t, "adam", "male", "women", 3)
	ts.putProfile(t, "ben", "male", "women", 3)

	rr := ts.do(t, http.MethodPost, "/events/"+ev.ID+"/signups", map[string]any{"user_id": "adam"}, false)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on signup, got %d: %s", rr.Code, rr.Body.String())
	}

	// The men's partition is full now.
	rr = ts.do(t, http.MethodPost, "/events/"+ev.ID+"/signups", map[string]any{"user_id": "ben"}, false)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 when full, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = ts.do(t, http.MethodPost, "/events/"+ev.ID+"/waitlist", map[string]any{"user_id": "ben"}, false)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 joining waitlist, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = ts.do(t, http.MethodPost, "/events/"+ev.ID+"/waitlist", map[string]any{"user_id": "ben"}, false)
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate waitlist join, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodDelete, "/events/"+ev.ID+"/signups/adam", nil, false)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on signout, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = ts.do(t, http.MethodGet, "/events/"+ev.ID+"/roster", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 listing roster, got %d", rr.Code)
	}
	var roster []models.RosterEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &roster); err != nil {
		t.Fatalf("failed to decode roster: %v", err)
	}
	if len(roster) != 1 || roster[0].UserID != "ben" {
		t.Fatalf("expected ben promoted onto the roster, got %+v", roster)
	}

	rr = ts.do(t, http.MethodGet, "/events/"+ev.ID+"/waitlist", nil, true)
	var waiting []models.WaitlistEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &waiting); err != nil {
		t.Fatalf("failed to decode waitlist: %v", err)
	}
	if len(waiting) != 0 {
		t.Errorf("expected empty waitlist, got %+v", waiting)
	}

	rr = ts.do(t, http.MethodGet, "/events/"+ev.ID, nil, false)
	var got models.Event
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if got.MenSignupCount != 1 {
		t.Errorf("expected men count 1 after promotion, got %d", got.MenSignupCount)
	}
}

func TestRemoveAndReconcile(t *testing.T) {
	ts := setupServer(t)
	ev := ts.createEvent(t, 2, 2)
	ts.putProfile(t, "cleo", "female", "men", 1)

	if rr := ts.do(t, http.MethodPost, "/events/"+ev.ID+"/signups", map[string]any{"user_id": "cleo"}, false); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on signup, got %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodDelete, "/events/"+ev.ID+"/roster/cleo", nil, false); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 removing without token, got %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodDelete, "/events/"+ev.ID+"/roster/cleo", nil, true); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 removing attendee, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := ts.do(t, http.MethodDelete, "/events/"+ev.ID+"/roster/cleo", nil, true); rr.Code != http.StatusConflict {
		t.Errorf("expected 409 removing twice, got %d", rr.Code)
	}

	rr := ts.do(t, http.MethodPost, "/events/"+ev.ID+"/reconcile", map[string]any{"apply": true}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from reconcile, got %d: %s", rr.Code, rr.Body.String())
	}
	var rep ledger.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if rep.Actual.Women != 0 {
		t.Errorf("expected no women on the roster, got %d", rep.Actual.Women)
	}
}

func TestMatches(t *testing.T) {
	ts := setupServer(t)
	ev := ts.createEvent(t, 3, 3)
	ts.putProfile(t, "dan", "male", "women", 2)
	ts.putProfile(t, "eve", "female", "men", 2)
	ts.putProfile(t, "fay", "female", "women", 2)

	for _, id := range []string{"dan", "eve", "fay"} {
		rr := ts.do(t, http.MethodPost, "/events/"+ev.ID+"/signups", map[string]any{"user_id": id}, false)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201 signing up %s, got %d: %s", id, rr.Code, rr.Body.String())
		}
	}
	answers := map[string]any{"answers": map[string]string{"social_energy": "introvert"}}
	for _, id := range []string{"dan", "eve"} {
		rr := ts.do(t, http.MethodPut, "/users/"+id+"/answers", answers, false)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 saving answers, got %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr := ts.do(t, http.MethodGet, "/events/"+ev.ID+"/matches/dan", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 ranking, got %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Results []scoring.Result `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode matches: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].ID != "eve" {
		t.Fatalf("expected only eve to match dan, got %+v", out.Results)
	}

	rr = ts.do(t, http.MethodPut, "/users/dan/answers", map[string]any{"answers": map[string]string{"favourite_colour": "blue"}}, false)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown question, got %d", rr.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := setupServer(t)
	ev := ts.createEvent(t, 1, 1)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		operator bool
		want     int
	}{
		{"missing event", http.MethodGet, "/events/nope", nil, false, http.StatusNotFound},
		{"missing user", http.MethodPost, "/events/" + ev.ID + "/signups", map[string]any{"user_id": "ghost"}, false, http.StatusNotFound},
		{"negative spots", http.MethodPatch, "/events/" + ev.ID + "/spots", map[string]any{"men_spots": -1, "women_spots": 1}, true, http.StatusUnprocessableEntity},
		{"unknown gender", http.MethodDelete, "/events/" + ev.ID + "/signups/anyone?gender=robot", nil, false, http.StatusUnprocessableEntity},
		{"not waitlisted", http.MethodDelete, "/events/" + ev.ID + "/waitlist/anyone", nil, false, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, tt.body, tt.operator)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}
