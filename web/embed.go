// Package web embeds the demo host page served by the stub endpoint.
//
// The page carries the <meta name="chat-auth-token"> tag the widget reads its
// bearer token from, so a local setup exercises the same lookup as a real
// embedding site.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/langdetect"
)

//go:embed all:dist
var distFS embed.FS

var pageTmpl = template.Must(template.ParseFS(distFS, "dist/index.html"))

// Page holds the values rendered into the host page.
type Page struct {
	AuthToken  string
	Endpoint   string
	SessionKey string
	Locale     domain.Locale
}

type pageData struct {
	Page
	Direction string
}

// HostPageHandler returns an http.Handler that renders the host page.
func HostPageHandler(p Page) http.Handler {
	if p.Locale == "" {
		p.Locale = domain.LocaleEnglish
	}
	data := pageData{Page: p, Direction: langdetect.Direction(p.Locale)}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, data); err != nil {
			slog.Error("web: failed to render host page", "error", err)
		}
	})
}
