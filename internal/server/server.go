package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed about.md
var aboutMarkdown string

var md = goldmark.New()

const (
	cookieName = "ecomenu_session"
	// SearchLimit caps the rows shown on the search page.
	SearchLimit = 10
)

// Options tunes the dashboard.
type Options struct {
	TopN int
	// ChatTimeout bounds one chat request; 0 adds no deadline beyond the
	// chat client's own HTTP timeout.
	ChatTimeout time.Duration
}

// Server is the HTTP dashboard over one loaded dataset.
type Server struct {
	table  *dataset.Table
	store  *session.Store
	opts   Options
	pages  map[string]*template.Template
	router chi.Router
}

// New parses templates and registers routes.
func New(table *dataset.Table, store *session.Store, opts Options) (*Server, error) {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"impact":   impactText,
		"level":    levelOf,
		"fixed2":   func(x float64) string { return fmt.Sprintf("%.2f", x) },
		"inc":      func(i int) int { return i + 1 },
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}
	pageNames := []string{"search.html", "analysis.html", "chat.html", "about.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{table: table, store: store, opts: opts, pages: pages, router: chi.NewRouter()}
	s.RegisterRoutes(s.router)
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

// RegisterRoutes mounts every page and API route on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/search", http.StatusFound)
		})
		r.Get("/search", s.handleSearch)
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/chat", s.handleChat)
		r.Post("/chat", s.handleChatPost)
		r.Post("/chat/suggest/{n}", s.handleChatSuggest)
		r.Post("/chat/reset", s.handleChatReset)
		r.Get("/about", s.handleAbout)
	})

	r.Get("/api/charts/{name}", s.handleChartJSON)
	r.Get("/api/stats", s.handleStatsJSON)
}

type ctxKey struct{}

// withSession attaches the visitor's session, issuing a cookie when new.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(cookieName); err == nil {
			id = c.Value
		}
		sess, created := s.store.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return s
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	data["Source"] = s.table.Source
	data["Products"] = s.table.Len()
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok %d products\n", s.table.Len())
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, "about.html", map[string]any{
		"Page":  "about",
		"About": aboutMarkdown,
	})
}

// Serve runs the server on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, s *Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
