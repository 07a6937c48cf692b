// Package tui is the interactive terminal front end: the same search,
// analysis, assistant and about pages as the web dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/assistant"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/stats"
)

// Page identifies one screen.
type Page int

const (
	PageSearch Page = iota
	PageAnalysis
	PageChat
	PageAbout
)

var pageTitles = []string{"🔍 Search", "📊 Analysis", "💬 Assistant", "ℹ About"}

func (p Page) String() string { return pageTitles[p] }

const (
	searchLimit = 10
	barWidth    = 30
)

// Options configures the model.
type Options struct {
	TopN int
	// Assistant may be nil; AssistantErr then explains why on the chat page.
	Assistant    *assistant.Assistant
	AssistantErr error
	ChatTimeout  time.Duration
}

// Model is the root bubbletea model.
type Model struct {
	table *dataset.Table
	opts  Options

	page   Page
	width  int
	height int

	// Search
	query   string
	results []dataset.Product
	total   int
	rec     *dataset.Recommendation

	// Analysis, computed once
	overview stats.Overview
	global   stats.GlobalStats
	groups   []stats.GroupStats
	extremes stats.Extremes

	// Chat
	input   string
	pending string
	waiting bool
	chatErr string
}

// New builds the model over a loaded table.
func New(t *dataset.Table, opts Options) Model {
	if opts.TopN <= 0 {
		opts.TopN = stats.DefaultTopN
	}
	return Model{
		table:    t,
		opts:     opts,
		width:    80,
		overview: stats.Summarize(t),
		global:   stats.Global(t),
		groups:   stats.Groups(t, stats.ByGroup),
		extremes: stats.Top(t, opts.TopN),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// chatCmd runs one assistant turn off the UI goroutine.
func chatCmd(a *assistant.Assistant, t *dataset.Table, message string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		reply, err := a.Ask(ctx, message, t)
		return ChatReplyMsg{Reply: reply, Err: err}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ChatReplyMsg:
		m.waiting = false
		m.pending = ""
		if msg.Err != nil {
			var rse *assistant.RemoteServiceError
			if errors.As(msg.Err, &rse) {
				m.chatErr = rse.Hint()
			} else {
				m.chatErr = msg.Err.Error()
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) typing() bool { return m.page == PageSearch || m.page == PageChat }

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC, KeyEsc:
		return m, tea.Quit
	case KeyQuit:
		if !m.typing() {
			return m, tea.Quit
		}
	case KeyTab:
		m.page = (m.page + 1) % Page(len(pageTitles))
		return m, nil
	case KeyShiftTab:
		m.page = (m.page + Page(len(pageTitles)) - 1) % Page(len(pageTitles))
		return m, nil
	}

	switch m.page {
	case PageSearch:
		if editText(&m.query, msg) {
			m.runSearch()
		}
	case PageChat:
		switch msg.String() {
		case KeyEnter:
			return m.send()
		case KeyReset:
			if m.opts.Assistant != nil && !m.waiting {
				m.opts.Assistant.Reset()
				m.chatErr = ""
			}
		default:
			editText(&m.input, msg)
		}
	}
	return m, nil
}

// edit applies a text-entry key to buf and reports whether it changed.
func editText(buf *string, msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		*buf += string(msg.Runes)
		return true
	case tea.KeySpace:
		*buf += " "
		return true
	case tea.KeyBackspace:
		if *buf == "" {
			return false
		}
		r := []rune(*buf)
		*buf = string(r[:len(r)-1])
		return true
	}
	return false
}

func (m *Model) runSearch() {
	results := m.table.Search(m.query)
	m.total = len(results)
	m.rec = dataset.Recommend(results)
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	m.results = results
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input)
	if text == "" || m.waiting {
		return m, nil
	}
	if m.opts.Assistant == nil {
		if m.opts.AssistantErr != nil {
			m.chatErr = m.opts.AssistantErr.Error()
		} else {
			m.chatErr = "assistant not configured"
		}
		return m, nil
	}
	m.input = ""
	m.pending = text
	m.waiting = true
	m.chatErr = ""
	return m, chatCmd(m.opts.Assistant, m.table, text, m.opts.ChatTimeout)
}

// View renders the active page.
func (m Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader(), "")
	switch m.page {
	case PageSearch:
		sections = append(sections, m.renderSearch())
	case PageAnalysis:
		sections = append(sections, m.renderAnalysis())
	case PageChat:
		sections = append(sections, m.renderChat())
	case PageAbout:
		sections = append(sections, renderAbout())
	}
	sections = append(sections, "", m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	tabs := make([]string, len(pageTitles))
	for i, t := range pageTitles {
		if Page(i) == m.page {
			tabs[i] = ActiveTabStyle.Render(t)
		} else {
			tabs[i] = TabStyle.Render(t)
		}
	}
	title := TitleStyle.Render("🌱 EcoMenu") + DimStyle.Render(fmt.Sprintf("  %d products", m.table.Len()))
	return title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFooter() string {
	help := "tab: next page"
	switch m.page {
	case PageSearch:
		help += " • type to search • esc: quit"
	case PageChat:
		help += " • enter: send • ctrl+r: new conversation • esc: quit"
	default:
		help += " • q: quit"
	}
	return DimStyle.Render(help)
}

func impactCell(p dataset.Product) string {
	level := "unknown"
	if v, ok := p.Impact(); ok {
		level = string(dataset.ImpactLevel(v))
	}
	return levelStyles[level].Render(p.ImpactText())
}

func (m Model) renderSearch() string {
	var b strings.Builder
	mean := "n/a"
	if m.overview.HasMean() {
		mean = fmt.Sprintf("%.2f kg CO2", m.overview.MeanImpact)
	}
	b.WriteString(DimStyle.Render(fmt.Sprintf("Products %d  Mean impact %s  Food groups %d",
		m.overview.Products, mean, m.overview.FoodGroups)))
	b.WriteString("\n")
	b.WriteString(InputStyle.Render("Product: " + m.query + "█"))
	b.WriteString("\n")
	if strings.TrimSpace(m.query) == "" {
		b.WriteString(DimStyle.Render("Type a product name, e.g. tomate, bœuf, fromage."))
		return b.String()
	}
	if len(m.results) == 0 {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("No product found for %q", m.query)))
		return b.String()
	}
	fmt.Fprintf(&b, "%d products match", m.total)
	if m.total > len(m.results) {
		fmt.Fprintf(&b, ", showing the %d lowest impacts", len(m.results))
	}
	b.WriteString("\n\n")
	for _, p := range m.results {
		fmt.Fprintf(&b, "  %s  %s %s\n", impactCell(p), p.Name, DimStyle.Render("("+p.FoodGroup+")"))
	}
	if m.rec != nil {
		b.WriteString("\n")
		b.WriteString(RecommendStyle.Render(fmt.Sprintf("💡 Choose %s (%s kg CO2) instead of %s (%s kg CO2)\n   and save %.2f kg CO2-eq per kg.",
			m.rec.Greener.Name, m.rec.Greener.ImpactText(), m.rec.Polluter.Name, m.rec.Polluter.ImpactText(), m.rec.Savings)))
	}
	return b.String()
}

func (m Model) renderAnalysis() string {
	var b strings.Builder
	if m.global.Empty() {
		b.WriteString(ErrorStyle.Render("No climate impact values are available in this dataset."))
		return b.String()
	}
	g := m.global
	fmt.Fprintf(&b, "Products %d  Mean %.2f  Median %.2f  Min %.2f  Max %.2f  (kg CO2-eq/kg)\n\n",
		g.Count, g.Mean, g.Median, g.Min, g.Max)

	b.WriteString(HeadingStyle.Render("Average impact by food group"))
	b.WriteString("\n")
	b.WriteString(renderBars(m.groups, barWidth))

	b.WriteString("\n")
	b.WriteString(HeadingStyle.Render("🏆 Champions"))
	b.WriteString("\n")
	writeRanking(&b, m.extremes.Lowest)
	b.WriteString(HeadingStyle.Render("⚠ Polluters"))
	b.WriteString("\n")
	writeRanking(&b, m.extremes.Highest)
	return b.String()
}

func writeRanking(b *strings.Builder, ps []dataset.Product) {
	for i, p := range ps {
		fmt.Fprintf(b, "%3d. %s  %s\n", i+1, impactCell(p), p.Name)
	}
}

// renderBars draws one horizontal bar per group scaled to the largest mean.
func renderBars(groups []stats.GroupStats, width int) string {
	if len(groups) == 0 {
		return DimStyle.Render("no groups") + "\n"
	}
	maxMean, labelW := 0.0, 0
	for _, g := range groups {
		if g.Mean > maxMean {
			maxMean = g.Mean
		}
		if w := lipgloss.Width(g.Label()); w > labelW {
			labelW = w
		}
	}
	var b strings.Builder
	for _, g := range groups {
		n := 0
		if maxMean > 0 {
			n = int(g.Mean / maxMean * float64(width))
		}
		if n == 0 && g.Mean > 0 {
			n = 1
		}
		label := g.Label()
		pad := strings.Repeat(" ", labelW-lipgloss.Width(label))
		style := levelStyles[string(dataset.ImpactLevel(g.Mean))]
		fmt.Fprintf(&b, "%s%s %s %.2f\n", label, pad, style.Render(strings.Repeat("█", n)), g.Mean)
	}
	return b.String()
}

func (m Model) renderChat() string {
	var b strings.Builder
	if m.opts.Assistant == nil {
		msg := "assistant not configured"
		if m.opts.AssistantErr != nil {
			msg = m.opts.AssistantErr.Error()
		}
		b.WriteString(ErrorStyle.Render("✗ " + msg))
		return b.String()
	}
	history := m.opts.Assistant.History()
	if len(history) == 0 && !m.waiting {
		b.WriteString(HeadingStyle.Render("💡 Try asking"))
		b.WriteString("\n")
		for _, s := range assistant.Suggestions {
			fmt.Fprintf(&b, "  %s\n", s.Question)
		}
		b.WriteString("\n")
	}
	for _, msg := range history {
		if msg.Role == ai.RoleAssistant {
			b.WriteString(AssistantStyle.Render(msg.Content))
		} else {
			b.WriteString(UserStyle.Render("> " + msg.Content))
		}
		b.WriteString("\n\n")
	}
	if m.waiting {
		b.WriteString(UserStyle.Render("> " + m.pending))
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("thinking..."))
		b.WriteString("\n\n")
	}
	if m.chatErr != "" {
		b.WriteString(ErrorStyle.Render("✗ " + m.chatErr))
		b.WriteString("\n")
	}
	b.WriteString(InputStyle.Render("Ask: " + m.input + "█"))
	b.WriteString("\n")
	b.WriteString(DimStyle.Render("Model: " + m.opts.Assistant.Model()))
	return b.String()
}

func renderAbout() string {
	return strings.Join([]string{
		HeadingStyle.Render("About EcoMenu"),
		"",
		"EcoMenu helps you explore the climate impact of food products and find",
		"greener alternatives.",
		"",
		"Figures come from AGRIBALYSE, the French reference database of",
		"environmental indicators for food, published by ADEME. Impacts are in",
		"kg CO2-eq per kg of product.",
		"",
		"Impact levels: " + levelStyles["low"].Render("< 2 low") + ", " +
			levelStyles["medium"].Render("< 6 medium") + ", " + levelStyles["high"].Render(">= 6 high") + ".",
	}, "\n")
}

// Run starts the program on the terminal and blocks until it exits.
func Run(t *dataset.Table, opts Options) error {
	p := tea.NewProgram(New(t, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
