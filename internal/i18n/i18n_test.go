package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/chatwidget/internal/domain"
)

func TestTranslateArabic(t *testing.T) {
	tr := New()

	assert.Equal(t, "خطأ في الشبكة. يرجى التحقق من الاتصال والمحاولة مرة أخرى.", tr.T(domain.LocaleArabic, MsgNetworkError))
	assert.Equal(t, "خطأ: HTTP 500", tr.Tf(domain.LocaleArabic, MsgErrorPrefix, "HTTP 500"))
}

func TestTranslateEnglishPassthrough(t *testing.T) {
	tr := New()

	assert.Equal(t, MsgBusy, tr.T(domain.LocaleEnglish, MsgBusy))
	assert.Equal(t, "Error: boom", tr.Tf(domain.LocaleEnglish, MsgErrorPrefix, "boom"))
	assert.Equal(t, "not in any catalog", tr.T(domain.LocaleArabic, "not in any catalog"))
}

func TestTranslateDoesNotFormat(t *testing.T) {
	tr := New()

	assert.Equal(t, MsgErrorPrefix, tr.T(domain.LocaleEnglish, MsgErrorPrefix))
	assert.Equal(t, "خطأ: %s", tr.T(domain.LocaleArabic, MsgErrorPrefix))
}

func TestUnknownLocaleFallsBackToEnglish(t *testing.T) {
	tr := New()

	assert.Equal(t, MsgNoReply, tr.T(domain.Locale("fr"), MsgNoReply))
}

func TestLocaleName(t *testing.T) {
	tr := New()

	assert.Equal(t, "English", tr.LocaleName(domain.LocaleEnglish))
	assert.Equal(t, "العربية", tr.LocaleName(domain.LocaleArabic))
}
