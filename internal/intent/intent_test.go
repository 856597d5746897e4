package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/i18n"
)

func TestPromptFor(t *testing.T) {
	c := NewCatalog(i18n.New())

	tests := []struct {
		name   string
		locale domain.Locale
		want   string
	}{
		{Inspiration, domain.LocaleEnglish, "Show me some inspiration"},
		{Inspiration, domain.LocaleArabic, "أرني بعض الأفكار الملهمة"},
		{FAQ, domain.LocaleEnglish, "What are the most frequently asked questions?"},
		{Complaint, domain.LocaleArabic, "أريد تقديم شكوى"},
		{"  FAQ ", domain.LocaleArabic, "ما هي الأسئلة الأكثر شيوعاً؟"},
		{"loyalty_points", domain.LocaleArabic, "loyalty_points"},
		{"", domain.LocaleEnglish, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.PromptFor(tt.name, tt.locale), "%s/%s", tt.name, tt.locale)
	}
}

func TestEveryIntentHasArabicPhrase(t *testing.T) {
	c := NewCatalog(i18n.New())

	for _, name := range c.Names() {
		en := c.PromptFor(name, domain.LocaleEnglish)
		ar := c.PromptFor(name, domain.LocaleArabic)
		assert.NotEqual(t, en, ar, name)
	}
}

func TestKnownAndNames(t *testing.T) {
	c := NewCatalog(i18n.New())

	assert.True(t, c.Known("complaint"))
	assert.False(t, c.Known("refund"))
	assert.Equal(t, []string{Complaint, FAQ, Inspiration, OrderStatus, Support}, c.Names())
}
