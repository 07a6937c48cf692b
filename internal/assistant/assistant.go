// Package assistant holds one conversation with the chat model, grounded on
// products looked up in the loaded dataset.
package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/utils"
)

const (
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 500
	DefaultSnippetLimit = 5
)

// Options configures an Assistant. Zero values select the defaults.
type Options struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      *float64
	MaxTokens        int
	HTTPTimeout      time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	SnippetLimit     int
	Keywords         []string
	// Runtime replaces the HTTP client; the API key is then not required.
	Runtime ai.Runtime
	// Debug receives request metadata (token estimates, timing) when set.
	Debug io.Writer
}

// Assistant owns a conversation history. Methods are safe for concurrent
// use, but callers are expected to serialize turns of one conversation.
type Assistant struct {
	runtime      ai.Runtime
	model        string
	temperature  float64
	maxTokens    int
	snippetLimit int
	keywords     []string
	debug        io.Writer

	mu      sync.Mutex
	history []ai.Message
}

// New validates opts and builds an Assistant. A blank API key without a
// Runtime yields a *ConfigurationError; no network call is made.
func New(opts Options) (*Assistant, error) {
	rt := opts.Runtime
	if rt == nil {
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, &ConfigurationError{Setting: "api_key", Reason: "set OPENAI_API_KEY (or ECOMENU_API_KEY) or api_key in the config file"}
		}
		rt = ai.NewClient(ai.ClientConfig{
			APIKey:           strings.TrimSpace(opts.APIKey),
			BaseURL:          opts.BaseURL,
			HTTPTimeout:      opts.HTTPTimeout,
			RetryMaxAttempts: opts.RetryMaxAttempts,
			RetryBaseDelay:   opts.RetryBaseDelay,
			RetryMaxDelay:    opts.RetryMaxDelay,
		})
	}
	a := &Assistant{
		runtime:      rt,
		model:        strings.TrimSpace(opts.Model),
		temperature:  DefaultTemperature,
		maxTokens:    opts.MaxTokens,
		snippetLimit: opts.SnippetLimit,
		keywords:     opts.Keywords,
		debug:        opts.Debug,
	}
	if a.model == "" {
		a.model = ai.DefaultModel
	}
	if opts.Temperature != nil {
		if *opts.Temperature < 0 || *opts.Temperature > 2 {
			return nil, &ConfigurationError{Setting: "temperature", Reason: fmt.Sprintf("%.2f is outside [0, 2]", *opts.Temperature)}
		}
		a.temperature = *opts.Temperature
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	if a.snippetLimit <= 0 {
		a.snippetLimit = DefaultSnippetLimit
	}
	if len(a.keywords) == 0 {
		a.keywords = DefaultKeywords
	}
	return a, nil
}

// Model returns the model name requests are sent with.
func (a *Assistant) Model() string { return a.model }

// Reset clears the conversation. Configuration is kept.
func (a *Assistant) Reset() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

// History returns a copy of the conversation in order.
func (a *Assistant) History() []ai.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ai.Message(nil), a.history...)
}

// LookupProductSnippet formats up to the snippet limit of products whose name
// contains query, in table order.
func (a *Assistant) LookupProductSnippet(query string, t *dataset.Table) string {
	return ProductSnippet(query, t, a.snippetLimit)
}

// ProductSnippet is LookupProductSnippet with an explicit limit.
func ProductSnippet(query string, t *dataset.Table, limit int) string {
	if limit <= 0 {
		limit = DefaultSnippetLimit
	}
	fq := dataset.Fold(query)
	var found []dataset.Product
	if t != nil && strings.TrimSpace(query) != "" {
		for _, p := range t.Products {
			if strings.Contains(dataset.Fold(p.Name), fq) {
				found = append(found, p)
				if len(found) == limit {
					break
				}
			}
		}
	}
	if len(found) == 0 {
		return fmt.Sprintf("No product found for '%s'", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Products found for '%s':\n", query)
	for _, p := range found {
		fmt.Fprintf(&b, "- %s: %s kg CO2\n", p.Name, p.ImpactText())
	}
	return b.String()
}

// SystemPrompt returns the persona prompt with snippet as data context.
func SystemPrompt(snippet string) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant on sustainable food and its environmental impact.\n\n")
	b.WriteString("You help users make greener food choices based on the AGRIBALYSE database published by ADEME.\n\n")
	b.WriteString("Your roles:\n")
	b.WriteString("- Explain the carbon impact of foods in an educational way\n")
	b.WriteString("- Suggest less polluting alternatives\n")
	b.WriteString("- Give practical advice to reduce the carbon footprint of meals\n")
	b.WriteString("- Stay encouraging and positive\n\n")
	b.WriteString("Available data context:\n")
	b.WriteString(strings.TrimSpace(snippet))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Answer concisely and clearly, in the user's language\n")
	b.WriteString("- Use emojis to make answers engaging\n")
	b.WriteString("- Give precise figures when relevant\n")
	b.WriteString("- Always propose concrete alternatives")
	return b.String()
}

// Chat sends the system prompt, the history and message as one request.
// The turn is recorded only when a reply comes back; on failure the history
// is unchanged and a *RemoteServiceError is returned.
func (a *Assistant) Chat(ctx context.Context, message, snippet string) (string, error) {
	system := SystemPrompt(snippet)
	history := a.History()
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: message})

	req := ai.GenerateRequest{
		Model:       a.model,
		Messages:    msgs,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}
	start := time.Now()
	if a.debug != nil {
		counts := utils.TokenBreakdown(map[string]string{"system": system, "message": message})
		fmt.Fprintf(a.debug, "debug: model=%s history=%d system≈%d tokens message≈%d tokens\n",
			a.model, len(history), counts["system"], counts["message"])
	}
	resp, err := a.runtime.Generate(ctx, req)
	if err != nil {
		return "", &RemoteServiceError{Err: err}
	}
	reply, ok := resp.Content()
	if !ok {
		return "", &RemoteServiceError{Err: errEmptyReply}
	}
	if a.debug != nil {
		fmt.Fprintf(a.debug, "debug: reply in %s (usage: prompt=%d completion=%d)", time.Since(start).Round(time.Millisecond), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		if resp.RequestID != "" {
			fmt.Fprintf(a.debug, " request_id=%s", resp.RequestID)
		}
		fmt.Fprintln(a.debug)
	}

	a.mu.Lock()
	a.history = append(a.history,
		ai.Message{Role: ai.RoleUser, Content: message},
		ai.Message{Role: ai.RoleAssistant, Content: reply},
	)
	a.mu.Unlock()
	return reply, nil
}

// Ask detects a product keyword in message, attaches the matching dataset
// snippet and chats. Without a keyword the snippet is empty.
func (a *Assistant) Ask(ctx context.Context, message string, t *dataset.Table) (string, error) {
	snippet := ""
	if kw, ok := DetectKeyword(message, a.keywords); ok {
		snippet = a.LookupProductSnippet(kw, t)
	}
	return a.Chat(ctx, message, snippet)
}
