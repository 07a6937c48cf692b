package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/assistant"
	"github.com/KaramelBytes/ecomenu/internal/charts"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/stats"
)

func impactText(p dataset.Product) string { return p.ImpactText() }

func levelOf(p dataset.Product) string {
	v, ok := p.Impact()
	if !ok {
		return "unknown"
	}
	return string(dataset.ImpactLevel(v))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	data := map[string]any{"Page": "search", "Query": q, "Overview": stats.Summarize(s.table)}
	if q != "" {
		results := s.table.Search(q)
		data["Total"] = len(results)
		data["Recommendation"] = dataset.Recommend(results)
		if len(results) > SearchLimit {
			results = results[:SearchLimit]
		}
		data["Results"] = results
	}
	s.render(w, "search.html", data)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	g := stats.Global(s.table)
	ex := stats.Top(s.table, s.opts.TopN)
	s.render(w, "analysis.html", map[string]any{
		"Page":     "analysis",
		"Global":   g,
		"Groups":   stats.Groups(s.table, stats.ByGroup),
		"Lowest":   ex.Lowest,
		"Highest":  ex.Highest,
		"Charts":   charts.Names,
		"Missing":  s.table.MissingHeaders(),
		"Warnings": s.table.Warnings,
	})
}

type chatTurn struct {
	Assistant bool
	Content   string
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Lock()
	defer sess.Unlock()

	data := map[string]any{
		"Page":        "chat",
		"Suggestions": assistant.Suggestions,
		"Banner":      sess.TakeBanner(),
	}
	a, err := sess.Assistant()
	if err != nil {
		data["ConfigError"] = err.Error()
		s.render(w, "chat.html", data)
		return
	}
	var turns []chatTurn
	for _, m := range a.History() {
		turns = append(turns, chatTurn{Assistant: m.Role == ai.RoleAssistant, Content: m.Content})
	}
	data["Turns"] = turns
	data["Model"] = a.Model()
	s.render(w, "chat.html", data)
}

func (s *Server) handleChatPost(w http.ResponseWriter, r *http.Request) {
	s.ask(w, r, strings.TrimSpace(r.FormValue("message")))
}

func (s *Server) handleChatSuggest(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 || n >= len(assistant.Suggestions) {
		http.NotFound(w, r)
		return
	}
	s.ask(w, r, assistant.Suggestions[n].Question)
}

// ask runs one chat turn and redirects back to the chat page. Failures are
// stored as a banner; the conversation is left as it was.
func (s *Server) ask(w http.ResponseWriter, r *http.Request, message string) {
	sess := sessionFrom(r)
	sess.Lock()
	defer sess.Unlock()
	defer http.Redirect(w, r, "/chat", http.StatusSeeOther)

	if message == "" {
		return
	}
	a, err := sess.Assistant()
	if err != nil {
		sess.Banner = err.Error()
		return
	}
	ctx := r.Context()
	if s.opts.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ChatTimeout)
		defer cancel()
	}
	if _, err := a.Ask(ctx, message, sess.Table); err != nil {
		log.Printf("chat failed for session %s: %v", sess.ID, err)
		var rse *assistant.RemoteServiceError
		if errors.As(err, &rse) {
			sess.Banner = rse.Hint()
		} else {
			sess.Banner = err.Error()
		}
	}
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Lock()
	if a, err := sess.Assistant(); err == nil {
		a.Reset()
	}
	sess.Unlock()
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	fig, err := charts.Build(s.table, chi.URLParam(r, "name"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	b, err := fig.JSON()
	if err != nil {
		log.Printf("Error encoding chart: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

type globalJSON struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	StdDev *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	P25    *float64 `json:"p25"`
	P75    *float64 `json:"p75"`
}

type productJSON struct {
	Name          string   `json:"name"`
	FoodGroup     string   `json:"food_group"`
	FoodSubgroup  string   `json:"food_subgroup"`
	ClimateImpact *float64 `json:"climate_impact"`
}

// nullable maps NaN to JSON null.
func nullable(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}

func toProductsJSON(ps []dataset.Product) []productJSON {
	out := make([]productJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, productJSON{Name: p.Name, FoodGroup: p.FoodGroup, FoodSubgroup: p.FoodSubgroup, ClimateImpact: p.ClimateImpact})
	}
	return out
}

func (s *Server) handleStatsJSON(w http.ResponseWriter, r *http.Request) {
	n := s.opts.TopN
	if v := r.URL.Query().Get("top"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			n = i
		}
	}
	by := stats.ByGroup
	if v := r.URL.Query().Get("by"); v != "" {
		b, ok := stats.ParseBy(v)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "by must be group or subgroup"})
			return
		}
		by = b
	}
	g := stats.Global(s.table)
	ex := stats.Top(s.table, n)
	groups := stats.Groups(s.table, by)
	if groups == nil {
		groups = []stats.GroupStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":    s.table.Len(),
		"missing": s.table.MissingHeaders(),
		"global": globalJSON{
			Count: g.Count, Mean: nullable(g.Mean), Median: nullable(g.Median), StdDev: nullable(g.StdDev),
			Min: nullable(g.Min), Max: nullable(g.Max), P25: nullable(g.P25), P75: nullable(g.P75),
		},
		"groups":  groups,
		"lowest":  toProductsJSON(ex.Lowest),
		"highest": toProductsJSON(ex.Highest),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding json: %v", err)
	}
}
