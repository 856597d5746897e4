package langdetect

import (
	"unicode/utf8"

	"github.com/ashureev/chatwidget/internal/domain"
)

// Detection methods reported by Classify.
const (
	MethodHeuristic  = "heuristic"
	MethodClientHint = "client_hint"
	MethodAuto       = "auto"
)

// Unknown is reported when no locale can be decided.
const Unknown = "unknown"

// Result is a scored classification, as served by the detect-language endpoint.
type Result struct {
	Lang       string  `json:"lang"`
	Confidence float64 `json:"confidence"`
	IsRTL      bool    `json:"is_rtl"`
	Method     string  `json:"method"`
	ClientHint string  `json:"client_hint,omitempty"`
}

// Classify scores text and reconciles it with an optional client hint.
//
// A valid hint wins when the text is empty, agrees with the hint, or is
// indeterminate. Without a hint, low-confidence results on very short input
// are reported as unknown.
func Classify(text, hint string) Result {
	h, hasHint := domain.ParseLocale(hint)

	if text == "" && hint != "" {
		if !hasHint {
			return Result{Lang: Unknown, Confidence: 0.9, Method: MethodClientHint}
		}
		return Result{Lang: string(h), Confidence: 0.9, IsRTL: h == domain.LocaleArabic, Method: MethodClientHint}
	}

	lang, conf := score(text)

	if hasHint {
		if lang == string(h) || lang == Unknown {
			return Result{Lang: string(h), Confidence: max(0.8, conf), IsRTL: h == domain.LocaleArabic, Method: MethodClientHint}
		}
		return Result{Lang: lang, Confidence: conf, IsRTL: lang == string(domain.LocaleArabic), Method: MethodAuto, ClientHint: string(h)}
	}

	if conf < 0.6 || (utf8.RuneCountInString(text) < 3 && conf < 0.9) {
		return Result{Lang: Unknown, Confidence: conf, Method: MethodHeuristic}
	}
	return Result{Lang: lang, Confidence: conf, IsRTL: lang == string(domain.LocaleArabic), Method: MethodHeuristic}
}

// score applies the dominance rule of Detect and attaches a confidence that
// grows with the share of script characters, capped at 0.9.
func score(text string) (string, float64) {
	l, ok := Detect(text)
	if !ok {
		return Unknown, 0
	}
	arabic, latin := Counts(text)
	n := latin
	if l == domain.LocaleArabic {
		n = arabic
	}
	total := max(10, utf8.RuneCountInString(text))
	return string(l), min(0.9, 0.5+float64(n)/float64(total))
}
