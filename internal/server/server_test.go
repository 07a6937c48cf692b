package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/assistant"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/session"
)

func f(v float64) *float64 { return &v }

func testTable() *dataset.Table {
	return &dataset.Table{
		Source: "agb.csv",
		Products: []dataset.Product{
			{Name: "Steak de bœuf", FoodGroup: "viandes", FoodSubgroup: "bœuf", ClimateImpact: f(27.5)},
			{Name: "Tomate crue", FoodGroup: "légumes", FoodSubgroup: "crus", ClimateImpact: f(0.8)},
			{Name: "Bœuf haché", FoodGroup: "viandes", FoodSubgroup: "bœuf", ClimateImpact: f(25.1)},
			{Name: "Lait", FoodGroup: "laitiers", FoodSubgroup: "laits", ClimateImpact: f(1.3)},
		},
		Columns: dataset.AllColumns,
	}
}

// fakeChat replies with a fixed text or fails, recording every request.
type fakeChat struct {
	fail      error
	reqs      []ai.GenerateRequest
	deadlines []bool
	reply     string
}

func (fc *fakeChat) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	fc.reqs = append(fc.reqs, req)
	_, hasDeadline := ctx.Deadline()
	fc.deadlines = append(fc.deadlines, hasDeadline)
	if fc.fail != nil {
		return nil, fc.fail
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: ai.RoleAssistant, Content: fc.reply}}}}, nil
}

func newTestServer(t *testing.T, factory session.Factory) (*Server, *session.Store) {
	t.Helper()
	tbl := testTable()
	store := session.NewStore(tbl, factory)
	srv, err := New(tbl, store, Options{TopN: 2})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, store
}

func factoryFor(fc *fakeChat) session.Factory {
	return func() (*assistant.Assistant, error) {
		return assistant.New(assistant.Options{Runtime: fc})
	}
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", cookieName)
	return nil
}

func TestSearchPage(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), "GET", "/search?q=B%C5%92UF", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	hache := strings.Index(body, "Bœuf haché")
	steak := strings.Index(body, "Steak de bœuf")
	if hache < 0 || steak < 0 || hache > steak {
		t.Fatalf("expected ascending impact order in results:\n%s", body)
	}
	if !strings.Contains(body, "level-high") {
		t.Error("expected impact level class")
	}
	if !strings.Contains(body, "save <strong>2.40 kg CO2-eq</strong>") {
		t.Errorf("expected recommendation with savings, got:\n%s", body)
	}
}

func TestSearchPageOverview(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	body := do(t, srv.Handler(), "GET", "/search", nil, nil).Body.String()
	for _, want := range []string{
		"<span>Products</span><strong>4</strong>",
		"<span>Food groups</span><strong>3</strong>",
		" kg CO2</strong>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("search overview missing %q", want)
		}
	}

	tbl := &dataset.Table{Source: "empty.csv"}
	empty, err := New(tbl, session.NewStore(tbl, nil), Options{})
	if err != nil {
		t.Fatal(err)
	}
	body = do(t, empty.Handler(), "GET", "/search", nil, nil).Body.String()
	if !strings.Contains(body, "<span>Mean impact</span><strong>n/a</strong>") {
		t.Error("empty dataset should show n/a mean")
	}
}

func TestSearchNoMatch(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), "GET", "/search?q=quinoa", nil, nil)
	if !strings.Contains(rec.Body.String(), "No product found") {
		t.Error("expected no-match message")
	}
}

func TestAnalysisAndAbout(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), "GET", "/analysis", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analysis: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"data-chart=\"groups\"", "viandes", "Tomate crue", "26.30"} {
		if !strings.Contains(body, want) {
			t.Errorf("analysis page missing %q", want)
		}
	}
	rec = do(t, srv.Handler(), "GET", "/about", nil, nil)
	if !strings.Contains(rec.Body.String(), "<h1>") || !strings.Contains(rec.Body.String(), "AGRIBALYSE") {
		t.Error("about page should render markdown")
	}
}

func TestChatFlow(t *testing.T) {
	fc := &fakeChat{reply: "**Lentils** are great"}
	srv, store := newTestServer(t, factoryFor(fc))
	h := srv.Handler()

	rec := do(t, h, "GET", "/chat", nil, nil)
	cookie := sessionCookie(t, rec)
	if !strings.Contains(rec.Body.String(), "Suggested questions") {
		t.Error("empty conversation should offer suggestions")
	}

	rec = do(t, h, "POST", "/chat", url.Values{"message": {"Alternatives au bœuf ?"}}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if len(fc.reqs) != 1 || !strings.Contains(fc.reqs[0].Messages[0].Content, "Products found for 'bœuf'") {
		t.Fatalf("expected keyword snippet in system prompt: %+v", fc.reqs)
	}

	rec = do(t, h, "GET", "/chat", nil, cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>Lentils</strong>") {
		t.Errorf("assistant reply should be rendered as markdown:\n%s", body)
	}
	if strings.Contains(body, "Suggested questions") {
		t.Error("suggestions should be hidden once the conversation started")
	}

	do(t, h, "POST", "/chat/reset", url.Values{}, cookie)
	sess, ok := store.Get(cookie.Value)
	if !ok {
		t.Fatal("session lost")
	}
	sess.Lock()
	a, _ := sess.Assistant()
	n := len(a.History())
	sess.Unlock()
	if n != 0 {
		t.Fatalf("history after reset = %d", n)
	}
}

func TestChatSuggestion(t *testing.T) {
	fc := &fakeChat{reply: "ok"}
	srv, _ := newTestServer(t, factoryFor(fc))
	rec := do(t, srv.Handler(), "POST", "/chat/suggest/2", url.Values{}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if len(fc.reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(fc.reqs))
	}
	last := fc.reqs[0].Messages[len(fc.reqs[0].Messages)-1]
	if last.Content != assistant.Suggestions[2].Question {
		t.Fatalf("unexpected question %q", last.Content)
	}
	rec = do(t, srv.Handler(), "POST", "/chat/suggest/9", url.Values{}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown suggestion, got %d", rec.Code)
	}
}

func TestChatDeadlineOnlyWhenConfigured(t *testing.T) {
	fc := &fakeChat{reply: "ok"}
	srv, _ := newTestServer(t, factoryFor(fc))
	do(t, srv.Handler(), "POST", "/chat", url.Values{"message": {"hello"}}, nil)

	tbl := testTable()
	bounded, err := New(tbl, session.NewStore(tbl, factoryFor(fc)), Options{ChatTimeout: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	do(t, bounded.Handler(), "POST", "/chat", url.Values{"message": {"hello"}}, nil)

	if len(fc.deadlines) != 2 {
		t.Fatalf("expected two requests, got %d", len(fc.deadlines))
	}
	if fc.deadlines[0] {
		t.Error("chat turn must not carry a deadline by default")
	}
	if !fc.deadlines[1] {
		t.Error("ChatTimeout should bound the chat turn")
	}
}

func TestChatFailureShowsBanner(t *testing.T) {
	fc := &fakeChat{fail: &ai.ServerError{APIError: &ai.APIError{StatusCode: 503}}}
	srv, _ := newTestServer(t, factoryFor(fc))
	h := srv.Handler()
	rec := do(t, h, "POST", "/chat", url.Values{"message": {"hello"}}, nil)
	cookie := sessionCookie(t, rec)

	body := do(t, h, "GET", "/chat", nil, cookie).Body.String()
	if !strings.Contains(body, "provider appears unavailable") {
		t.Errorf("expected error banner:\n%s", body)
	}
	if strings.Contains(body, "turn user") {
		t.Error("failed turn must not appear in the conversation")
	}
	body = do(t, h, "GET", "/chat", nil, cookie).Body.String()
	if strings.Contains(body, "provider appears unavailable") {
		t.Error("banner should be shown once")
	}
}

func TestChatWithoutAPIKey(t *testing.T) {
	srv, _ := newTestServer(t, func() (*assistant.Assistant, error) {
		return assistant.New(assistant.Options{})
	})
	h := srv.Handler()
	body := do(t, h, "GET", "/chat", nil, nil).Body.String()
	if !strings.Contains(body, "OPENAI_API_KEY") {
		t.Errorf("expected configuration error on chat page:\n%s", body)
	}
	if rec := do(t, h, "GET", "/search?q=lait", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("other pages must keep working, got %d", rec.Code)
	}
}

func TestChartsAPI(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), "GET", "/api/charts/groups", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fig struct {
		Data []struct {
			Type string   `json:"type"`
			Y    []string `json:"y"`
		} `json:"data"`
		Layout struct {
			Height int `json:"height"`
		} `json:"layout"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fig); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fig.Data) != 1 || fig.Data[0].Type != "bar" || fig.Data[0].Y[0] != "viandes" || fig.Layout.Height != 500 {
		t.Fatalf("unexpected figure: %+v", fig)
	}
	if rec := do(t, srv.Handler(), "GET", "/api/charts/pie", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatsAPIEmptyTable(t *testing.T) {
	tbl := &dataset.Table{Source: "empty.csv"}
	srv, err := New(tbl, session.NewStore(tbl, nil), Options{})
	if err != nil {
		t.Fatal(err)
	}
	rec := do(t, srv.Handler(), "GET", "/api/stats", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Global struct {
			Count int      `json:"count"`
			Mean  *float64 `json:"mean"`
		} `json:"global"`
		Groups []any `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Global.Count != 0 || out.Global.Mean != nil || out.Groups == nil {
		t.Fatalf("unexpected stats: %s", rec.Body.String())
	}
}

func TestStatsAPIBadGrouping(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	if rec := do(t, srv.Handler(), "GET", "/api/stats?by=season", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealthAndStatic(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	if rec := do(t, srv.Handler(), "GET", "/healthz", nil, nil); rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "ok 4") {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, srv.Handler(), "GET", "/static/style.css", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("static: %d", rec.Code)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", srv) }()
	cancel()
	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Serve: %v", err)
	}
}
