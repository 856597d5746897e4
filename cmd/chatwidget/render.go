package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/i18n"
)

// termRenderer prints conversation bubbles as prefixed lines.
type termRenderer struct {
	mu  sync.Mutex
	out io.Writer
	tr  *i18n.Translator
}

func newTermRenderer(out io.Writer, tr *i18n.Translator) *termRenderer {
	return &termRenderer{out: out, tr: tr}
}

// SetOutput redirects rendering, e.g. to the readline stdout.
func (r *termRenderer) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = w
}

func (r *termRenderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *termRenderer) UserMessage(text string)  { r.printf("you> %s\n", text) }
func (r *termRenderer) BotMessage(text string)   { r.printf("bot> %s\n", text) }
func (r *termRenderer) ErrorMessage(text string) { r.printf("!!   %s\n", text) }
func (r *termRenderer) Notice(text string)       { r.printf("--   %s\n", text) }

// Focus is a no-op: the prompt is always focused.
func (r *termRenderer) Focus() {}

func (r *termRenderer) LocaleChanged(l domain.Locale, dir string) {
	r.printf("--   %s [%s]\n", r.tr.Tf(l, i18n.MsgLocaleSwitch, r.tr.LocaleName(l)), dir)
}
