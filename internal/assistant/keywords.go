package assistant

import (
	"strings"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

// DefaultKeywords are the product words that trigger a dataset lookup.
// Order matters: the first one found in a message wins.
var DefaultKeywords = []string{
	"bœuf", "agneau", "porc", "poulet", "fromage", "lait",
	"tomate", "pomme", "pain", "riz", "pâtes",
}

// DetectKeyword returns the first vocabulary word contained in message,
// compared case-folded. An empty vocabulary means DefaultKeywords.
func DetectKeyword(message string, vocabulary []string) (string, bool) {
	if len(vocabulary) == 0 {
		vocabulary = DefaultKeywords
	}
	folded := dataset.Fold(message)
	for _, kw := range vocabulary {
		if kw == "" {
			continue
		}
		if strings.Contains(folded, dataset.Fold(kw)) {
			return kw, true
		}
	}
	return "", false
}

// Suggestion is a canned question offered on an empty conversation.
type Suggestion struct {
	Label    string
	Question string
}

// Suggestions are shown while the conversation is empty.
var Suggestions = []Suggestion{
	{Label: "🥩 Red meat alternatives?", Question: "What are the best alternatives to red meat to reduce my carbon footprint?"},
	{Label: "🧀 Impact of dairy products?", Question: "What is the environmental impact of dairy products (lait, fromage) and how can I reduce it?"},
	{Label: "🥗 Low-carbon menu?", Question: "Suggest a one-day menu with a low carbon impact."},
	{Label: "🌱 Sustainable eating tips?", Question: "Give me 5 practical tips for more sustainable eating."},
}
