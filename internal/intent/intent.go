// Package intent maps named quick intents to canonical prompt text.
package intent

import (
	"sort"
	"strings"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/i18n"
)

// Recognized quick intents.
const (
	Inspiration = "inspiration"
	FAQ         = "faq"
	Complaint   = "complaint"
	OrderStatus = "order_status"
	Support     = "support"
)

// prompts holds the English msgid for each intent; translations live in the
// i18n catalogs.
var prompts = map[string]string{
	Inspiration: "Show me some inspiration",
	FAQ:         "What are the most frequently asked questions?",
	Complaint:   "I want to file a complaint",
	OrderStatus: "What is the status of my order?",
	Support:     "I need help from customer support",
}

// Catalog resolves intent prompts in the active locale.
type Catalog struct {
	tr *i18n.Translator
}

// NewCatalog creates a catalog backed by tr.
func NewCatalog(tr *i18n.Translator) *Catalog {
	return &Catalog{tr: tr}
}

// PromptFor returns the canonical phrase for name in locale l.
// Unrecognized names are returned unchanged so intents defined only on the
// server still round-trip.
func (c *Catalog) PromptFor(name string, l domain.Locale) string {
	msgid, ok := prompts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return name
	}
	return c.tr.T(l, msgid)
}

// Known reports whether name is one of the recognized intents.
func (c *Catalog) Known(name string) bool {
	_, ok := prompts[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names lists the recognized intents in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
