// Package widget runs the chat submission pipeline: the single in-flight
// guard, request composition, delivery, reply handling and session adoption.
//
// A Widget is the one context object a host creates. It owns the active
// locale and reports every outcome through a Renderer; submission failures
// never surface as Go errors.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ashureev/chatwidget/internal/compose"
	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/i18n"
	"github.com/ashureev/chatwidget/internal/intent"
	"github.com/ashureev/chatwidget/internal/langdetect"
	"github.com/ashureev/chatwidget/internal/transport"
)

// maxReplyBytes caps how much of a reply body is read.
const maxReplyBytes = 1 << 20 // 1MB

// Renderer displays the conversation. Implementations must not block for long;
// they run on the submitting goroutine.
type Renderer interface {
	UserMessage(text string)
	BotMessage(text string)
	ErrorMessage(text string)
	Notice(text string)
	Focus()
	LocaleChanged(l domain.Locale, dir string)
}

// Sender delivers a composed request. *transport.Transport satisfies it.
type Sender interface {
	Send(ctx context.Context, req *compose.Request) (*http.Response, error)
}

// Sessions is the session record the widget reads and updates.
// *session.Store satisfies it.
type Sessions interface {
	GetOrCreate(ctx context.Context) (domain.Session, error)
	Adopt(ctx context.Context, id string) error
}

// Submission is one user action.
type Submission struct {
	Message string
	File    *domain.Attachment
	Intent  string
}

// Kind classifies an Outcome.
type Kind int

const (
	// KindReply is a successful response.
	KindReply Kind = iota
	// KindEmpty means nothing was submitted.
	KindEmpty
	// KindBusy means another submission was still in flight.
	KindBusy
	// KindServerError is a non-2xx response, including exhausted rate limiting.
	KindServerError
	// KindNetworkError means no response arrived.
	KindNetworkError
)

func (k Kind) String() string {
	switch k {
	case KindReply:
		return "reply"
	case KindEmpty:
		return "empty"
	case KindBusy:
		return "busy"
	case KindServerError:
		return "server_error"
	case KindNetworkError:
		return "network_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is what a submission produced. Text is the string that was rendered.
type Outcome struct {
	Kind   Kind
	Text   string
	Status int
	Reply  domain.InboundReply
}

// Options configures a Widget. Sender, Sessions and Renderer are required.
type Options struct {
	Endpoint   string
	AuthToken  string
	Locale     domain.Locale
	Sender     Sender
	Sessions   Sessions
	Renderer   Renderer
	Translator *i18n.Translator
	Logger     *slog.Logger
}

// Widget is the submission controller.
type Widget struct {
	endpoint  string
	authToken string
	sender    Sender
	sessions  Sessions
	renderer  Renderer
	tr        *i18n.Translator
	catalog   *intent.Catalog
	logger    *slog.Logger

	locale atomic.Value // domain.Locale
	busy   atomic.Bool
}

// New creates a Widget from opts.
func New(opts Options) (*Widget, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("endpoint cannot be empty")
	}
	if opts.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("sessions is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if opts.Translator == nil {
		opts.Translator = i18n.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l, ok := domain.ParseLocale(string(opts.Locale))
	if !ok {
		l = domain.LocaleEnglish
	}

	w := &Widget{
		endpoint:  opts.Endpoint,
		authToken: opts.AuthToken,
		sender:    opts.Sender,
		sessions:  opts.Sessions,
		renderer:  opts.Renderer,
		tr:        opts.Translator,
		catalog:   intent.NewCatalog(opts.Translator),
		logger:    opts.Logger,
	}
	w.locale.Store(l)
	return w, nil
}

// Locale returns the active locale.
func (w *Widget) Locale() domain.Locale {
	return w.locale.Load().(domain.Locale)
}

// SetLocale switches the active locale. Unsupported tags are ignored and the
// renderer is told only when the value actually changes.
func (w *Widget) SetLocale(l domain.Locale) {
	l, ok := domain.ParseLocale(string(l))
	if !ok {
		return
	}
	if old := w.locale.Swap(l).(domain.Locale); old != l {
		w.renderer.LocaleChanged(l, langdetect.Direction(l))
	}
}

// ObserveTyping applies the eager per-keystroke rule: any Arabic character
// switches the widget to Arabic. It never switches back.
func (w *Widget) ObserveTyping(text string) {
	if langdetect.DetectLive(text) {
		w.SetLocale(domain.LocaleArabic)
	}
}

// Busy reports whether a submission is in flight.
func (w *Widget) Busy() bool {
	return w.busy.Load()
}

// Catalog returns the intent catalog used for quick intents.
func (w *Widget) Catalog() *intent.Catalog {
	return w.catalog
}

// Translator returns the translator used for widget strings.
func (w *Widget) Translator() *i18n.Translator {
	return w.tr
}

// QuickIntent submits the canonical prompt for name in the active locale,
// tagged with the intent.
func (w *Widget) QuickIntent(ctx context.Context, name string) Outcome {
	return w.Submit(ctx, Submission{
		Message: w.catalog.PromptFor(name, w.Locale()),
		Intent:  name,
	})
}

// Submit runs one submission to completion. A second call while one is in
// flight is rejected with a busy notice and touches nothing else.
func (w *Widget) Submit(ctx context.Context, sub Submission) Outcome {
	if !w.busy.CompareAndSwap(false, true) {
		text := w.tr.T(w.Locale(), i18n.MsgBusy)
		w.renderer.Notice(text)
		return Outcome{Kind: KindBusy, Text: text}
	}
	defer w.busy.Store(false)

	text := strings.TrimSpace(sub.Message)
	if text == "" && sub.File == nil {
		w.renderer.Focus()
		return Outcome{Kind: KindEmpty}
	}

	if text != "" {
		w.renderer.UserMessage(text)
		if l, ok := langdetect.Detect(text); ok {
			w.SetLocale(l)
		}
	} else {
		w.renderer.UserMessage(sub.File.Name)
	}

	sess, err := w.sessions.GetOrCreate(ctx)
	if err != nil {
		// The returned session is still usable for this request.
		w.logger.Warn("Session not persisted", "session_id", sess.ID, "error", err)
	}

	req, err := compose.Build(compose.Input{
		Endpoint:  w.endpoint,
		AuthToken: w.authToken,
		Message: domain.OutboundMessage{
			SessionID: sess.ID,
			Text:      text,
			File:      sub.File,
			Language:  w.Locale(),
			Intent:    strings.TrimSpace(sub.Intent),
		},
	})
	if err != nil {
		w.logger.Error("Failed to compose chat request", "session_id", sess.ID, "error", err)
		return w.networkFailure()
	}

	resp, err := w.sender.Send(ctx, req)
	if err != nil {
		w.logger.Error("Chat request failed",
			"session_id", sess.ID,
			"network", errors.Is(err, transport.ErrNetwork),
			"error", err)
		return w.networkFailure()
	}
	reply := w.readReply(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out := Outcome{
			Kind:   KindServerError,
			Text:   w.tr.Tf(w.Locale(), i18n.MsgErrorPrefix, errorText(resp, reply)),
			Status: resp.StatusCode,
			Reply:  reply,
		}
		w.renderer.ErrorMessage(out.Text)
		return out
	}

	out := Outcome{Kind: KindReply, Text: reply.Reply, Status: resp.StatusCode, Reply: reply}
	if out.Text == "" {
		out.Text = w.tr.T(w.Locale(), i18n.MsgNoReply)
	}
	w.renderer.BotMessage(out.Text)

	if id := strings.TrimSpace(reply.SessionID); id != "" && id != sess.ID {
		if err := w.sessions.Adopt(ctx, id); err != nil {
			w.logger.Warn("Failed to adopt server session", "session_id", id, "error", err)
		} else {
			w.logger.Debug("Adopted server session", "previous", sess.ID, "session_id", id)
		}
	}
	return out
}

func (w *Widget) networkFailure() Outcome {
	text := w.tr.T(w.Locale(), i18n.MsgNetworkError)
	w.renderer.ErrorMessage(text)
	return Outcome{Kind: KindNetworkError, Text: text}
}

// readReply decodes the body. Anything unreadable degrades to an empty reply.
func (w *Widget) readReply(resp *http.Response) domain.InboundReply {
	defer resp.Body.Close()

	var reply domain.InboundReply
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		w.logger.Debug("Failed to read reply body", "status", resp.StatusCode, "error", err)
		return domain.InboundReply{}
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		w.logger.Debug("Reply body is not JSON", "status", resp.StatusCode, "error", err)
		return domain.InboundReply{}
	}
	return reply
}

// errorText picks the server error field, then the response reason phrase,
// then a generic code string.
func errorText(resp *http.Response, reply domain.InboundReply) string {
	if msg := strings.TrimSpace(reply.Error); msg != "" {
		return msg
	}
	status := resp.StatusCode
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(status))); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
