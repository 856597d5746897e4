// Package domain contains core domain types for the chat widget.
package domain

import "strings"

// Locale is the widget presentation language.
type Locale string

const (
	// LocaleEnglish is the Latin-script locale.
	LocaleEnglish Locale = "en"
	// LocaleArabic is the Arabic-script locale.
	LocaleArabic Locale = "ar"
)

// ParseLocale normalizes a locale tag ("ar-EG", "EN") to a supported locale.
// The second return is false when the tag is neither English nor Arabic.
func ParseLocale(tag string) (Locale, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	switch Locale(tag) {
	case LocaleEnglish:
		return LocaleEnglish, true
	case LocaleArabic:
		return LocaleArabic, true
	default:
		return "", false
	}
}

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}
