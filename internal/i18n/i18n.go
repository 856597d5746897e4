// Package i18n provides the widget's user-facing strings in English and Arabic.
//
// It wraps the gotext library. Translations are embedded in the binary via
// //go:embed; English strings are the msgids, so a missing translation falls
// back to the English text unchanged.
package i18n

import (
	"embed"
	"fmt"

	"github.com/leonelquinteros/gotext"

	"github.com/ashureev/chatwidget/internal/domain"
)

// locales embeds the translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/widget.po
//
//go:embed all:locales
var locales embed.FS

// textDomain is the gettext domain name for the widget.
const textDomain = "widget"

// Translator resolves msgids for each supported locale.
type Translator struct {
	catalogs map[domain.Locale]map[string]string
}

// New loads the embedded catalogs for every supported locale.
func New() *Translator {
	t := &Translator{catalogs: make(map[domain.Locale]map[string]string)}
	for _, l := range []domain.Locale{domain.LocaleEnglish, domain.LocaleArabic} {
		po := gotext.NewLocaleFSWithPath(string(l), locales, "locales")
		po.AddDomain(textDomain)
		t.catalogs[l] = snapshot(po)
	}
	return t
}

// snapshot copies the translated strings of the widget domain.
func snapshot(po *gotext.Locale) map[string]string {
	out := make(map[string]string)
	tr, ok := po.Domains[textDomain]
	if !ok || tr == nil {
		return out
	}
	for msgid, entry := range tr.GetDomain().GetTranslations() {
		if msgid != "" {
			out[msgid] = entry.Get()
		}
	}
	return out
}

// T translates msgid into locale l. Unknown locales fall back to English and
// untranslated strings return msgid.
func (t *Translator) T(l domain.Locale, msgid string) string {
	catalog, ok := t.catalogs[l]
	if !ok {
		catalog = t.catalogs[domain.LocaleEnglish]
	}
	if text, ok := catalog[msgid]; ok && text != "" {
		return text
	}
	return msgid
}

// Tf translates format into locale l and applies vars with fmt.Sprintf.
func (t *Translator) Tf(l domain.Locale, format string, vars ...any) string {
	return fmt.Sprintf(t.T(l, format), vars...)
}

// Widget strings shared by the submission pipeline and the CLI.
const (
	MsgBusy         = "Still processing previous message, please wait."
	MsgNetworkError = "Network error. Please check your connection and try again."
	MsgNoReply      = "Sorry, I didn't get a reply. Please try again."
	MsgErrorPrefix  = "Error: %s"
	MsgLocaleSwitch = "Language switched to %s."
	MsgEnglish      = "English"
	MsgArabic       = "Arabic"
)

// LocaleName returns the display name of l in the locale it names.
func (t *Translator) LocaleName(l domain.Locale) string {
	if l == domain.LocaleArabic {
		return t.T(l, MsgArabic)
	}
	return t.T(l, MsgEnglish)
}
