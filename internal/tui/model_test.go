package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/assistant"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/stats"
)

func f(v float64) *float64 { return &v }

func testTable() *dataset.Table {
	return &dataset.Table{
		Source: "agb.csv",
		Products: []dataset.Product{
			{Name: "Tomate crue", FoodGroup: "légumes", ClimateImpact: f(0.8)},
			{Name: "Tomate cerise", FoodGroup: "légumes", ClimateImpact: f(1.9)},
			{Name: "Sauce tomate", FoodGroup: "aides culinaires", ClimateImpact: f(3.4)},
			{Name: "Steak de bœuf", FoodGroup: "viandes", ClimateImpact: f(27.5)},
		},
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewModel(t *testing.T) {
	m := New(testTable(), Options{})
	if m.page != PageSearch {
		t.Errorf("page = %v, want search", m.page)
	}
	if m.opts.TopN != stats.DefaultTopN {
		t.Errorf("TopN = %d", m.opts.TopN)
	}
	if m.global.Count != 4 {
		t.Errorf("global count = %d", m.global.Count)
	}
}

func TestTabCyclesPages(t *testing.T) {
	m := New(testTable(), Options{})
	want := []Page{PageAnalysis, PageChat, PageAbout, PageSearch}
	for _, p := range want {
		m, _ = update(t, m, key(tea.KeyTab))
		if m.page != p {
			t.Fatalf("page = %v, want %v", m.page, p)
		}
	}
	m, _ = update(t, m, key(tea.KeyShiftTab))
	if m.page != PageAbout {
		t.Fatalf("shift+tab should go back, got %v", m.page)
	}
}

func TestLiveSearch(t *testing.T) {
	m := New(testTable(), Options{})
	m, _ = update(t, m, runes("TOM"))
	if m.total != 3 {
		t.Fatalf("total = %d, want 3", m.total)
	}
	if m.results[0].Name != "Tomate crue" {
		t.Errorf("first result = %q", m.results[0].Name)
	}
	if m.rec == nil || m.rec.Polluter.Name != "Sauce tomate" {
		t.Fatalf("unexpected recommendation %+v", m.rec)
	}

	m, _ = update(t, m, runes("ate c"))
	if m.query != "TOMate c" || m.total != 2 {
		t.Fatalf("query %q total %d", m.query, m.total)
	}
	m, _ = update(t, m, key(tea.KeyBackspace))
	m, _ = update(t, m, key(tea.KeyBackspace))
	if m.query != "TOMate" || m.total != 3 {
		t.Fatalf("after backspace query %q total %d", m.query, m.total)
	}
	if out := m.View(); !strings.Contains(out, "3 products match") || !strings.Contains(out, "save 2.60 kg CO2-eq") {
		t.Errorf("unexpected view:\n%s", out)
	}
}

func TestSearchOverview(t *testing.T) {
	out := New(testTable(), Options{}).View()
	if !strings.Contains(out, "Products 4  Mean impact 8.40 kg CO2  Food groups 3") {
		t.Errorf("missing overview line:\n%s", out)
	}
	out = New(&dataset.Table{}, Options{}).View()
	if !strings.Contains(out, "Products 0  Mean impact n/a  Food groups 0") {
		t.Errorf("empty overview:\n%s", out)
	}
}

func TestSearchNoMatchView(t *testing.T) {
	m := New(testTable(), Options{})
	m, _ = update(t, m, runes("quinoa"))
	if !strings.Contains(m.View(), "No product found") {
		t.Error("expected no-match message")
	}
}

func TestQuitKeys(t *testing.T) {
	m := New(testTable(), Options{})
	m, cmd := update(t, m, runes("q"))
	if isQuit(cmd) {
		t.Fatal("q while typing a search must not quit")
	}
	if m.query != "q" {
		t.Fatalf("q should be typed, query=%q", m.query)
	}
	m, _ = update(t, m, key(tea.KeyTab))
	if _, cmd = update(t, m, runes("q")); !isQuit(cmd) {
		t.Error("q on analysis page should quit")
	}
	if _, cmd = update(t, m, key(tea.KeyEsc)); !isQuit(cmd) {
		t.Error("esc should quit")
	}
	if _, cmd = update(t, m, key(tea.KeyCtrlC)); !isQuit(cmd) {
		t.Error("ctrl+c should quit")
	}
}

func TestAnalysisView(t *testing.T) {
	m := New(testTable(), Options{TopN: 2})
	m.page = PageAnalysis
	out := m.View()
	for _, want := range []string{"Products 4", "viandes", "27.50", "Champions", "Polluters"} {
		if !strings.Contains(out, want) {
			t.Errorf("analysis view missing %q:\n%s", want, out)
		}
	}
	if len(m.extremes.Lowest) != 2 {
		t.Errorf("lowest = %d, want 2", len(m.extremes.Lowest))
	}
}

func TestAnalysisEmptyTable(t *testing.T) {
	m := New(&dataset.Table{}, Options{})
	m.page = PageAnalysis
	if !strings.Contains(m.View(), "No climate impact values") {
		t.Error("expected empty warning")
	}
}

func TestRenderBars(t *testing.T) {
	out := renderBars([]stats.GroupStats{
		{Group: "viandes", Mean: 20},
		{Group: "légumes", Mean: 1},
	}, 10)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if strings.Count(lines[0], "█") != 10 {
		t.Errorf("largest bar should fill the width: %q", lines[0])
	}
	if strings.Count(lines[1], "█") != 1 {
		t.Errorf("small non-zero mean should still draw one cell: %q", lines[1])
	}
}

type stubRuntime struct {
	reply string
	err   error
}

func (s stubRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: ai.RoleAssistant, Content: s.reply}}}}, nil
}

func chatModel(t *testing.T, rt ai.Runtime) Model {
	t.Helper()
	a, err := assistant.New(assistant.Options{Runtime: rt})
	if err != nil {
		t.Fatal(err)
	}
	m := New(testTable(), Options{Assistant: a})
	m.page = PageChat
	return m
}

func TestChatSendAndReply(t *testing.T) {
	m := chatModel(t, stubRuntime{reply: "Eat more lentils"})
	m, _ = update(t, m, runes("hello"))
	m, cmd := update(t, m, key(tea.KeyEnter))
	if !m.waiting || m.input != "" || cmd == nil {
		t.Fatalf("expected pending request, waiting=%v input=%q", m.waiting, m.input)
	}
	if !strings.Contains(m.View(), "thinking...") {
		t.Error("expected pending indicator")
	}
	if _, again := update(t, m, key(tea.KeyEnter)); again != nil {
		t.Error("enter while waiting must not send")
	}

	m, _ = update(t, m, cmd())
	if m.waiting {
		t.Fatal("reply should clear waiting")
	}
	out := m.View()
	if !strings.Contains(out, "> hello") || !strings.Contains(out, "Eat more lentils") {
		t.Errorf("conversation not rendered:\n%s", out)
	}

	m, _ = update(t, m, key(tea.KeyCtrlR))
	if n := len(m.opts.Assistant.History()); n != 0 {
		t.Fatalf("history after reset = %d", n)
	}
}

func TestChatError(t *testing.T) {
	m := chatModel(t, stubRuntime{err: &ai.AuthError{APIError: &ai.APIError{StatusCode: 401}}})
	m, _ = update(t, m, runes("hi"))
	m, cmd := update(t, m, key(tea.KeyEnter))
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.chatErr, "Authentication failed") {
		t.Fatalf("chatErr = %q", m.chatErr)
	}
	if n := len(m.opts.Assistant.History()); n != 0 {
		t.Fatalf("failed turn must not be recorded, history=%d", n)
	}
}

func TestChatWithoutAssistant(t *testing.T) {
	m := New(testTable(), Options{AssistantErr: errors.New("assistant not configured: api_key: missing")})
	m.page = PageChat
	m, cmd := update(t, m, key(tea.KeyEnter))
	if cmd != nil {
		t.Fatal("nothing to send")
	}
	if !strings.Contains(m.View(), "api_key") {
		t.Error("expected configuration error on chat page")
	}
}
