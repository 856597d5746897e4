// Package langdetect classifies short chat input as Arabic-script or
// Latin-script so the widget can pick its presentation locale.
package langdetect

import (
	"strings"
	"unicode"

	"github.com/ashureev/chatwidget/internal/domain"
)

// minScriptChars is the smallest count of script characters that counts as a signal.
const minScriptChars = 2

// arabicScript covers the Arabic blocks including presentation forms.
var arabicScript = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	},
}

// IsArabic reports whether r falls in one of the Arabic script ranges.
func IsArabic(r rune) bool {
	return unicode.Is(arabicScript, r)
}

func isLatin(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Counts returns the number of Arabic-range and basic Latin letters in text.
func Counts(text string) (arabic, latin int) {
	for _, r := range text {
		switch {
		case IsArabic(r):
			arabic++
		case isLatin(r):
			latin++
		}
	}
	return arabic, latin
}

// Detect classifies text by script dominance. ok is false when the text is
// blank or carries too few script characters to decide.
//
// Arabic is checked first, so a tie of two or more characters each resolves
// to Arabic.
func Detect(text string) (locale domain.Locale, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	arabic, latin := Counts(text)
	if arabic >= minScriptChars && arabic >= latin {
		return domain.LocaleArabic, true
	}
	if latin >= minScriptChars && latin >= arabic {
		return domain.LocaleEnglish, true
	}
	return "", false
}

// DetectLive is the eager check used while the user is typing: a single
// Arabic character is enough, Latin input is ignored.
func DetectLive(text string) bool {
	for _, r := range text {
		if IsArabic(r) {
			return true
		}
	}
	return false
}

// Direction returns the text direction attribute for a locale.
func Direction(l domain.Locale) string {
	if l == domain.LocaleArabic {
		return "rtl"
	}
	return "ltr"
}
