// Package stubserver is a local stand-in for the remote chat endpoint.
//
// It speaks the same wire format as the production backend: JSON or
// multipart POST /api/chat, a per-session rate limiter answering 429 with
// Retry-After, POST /api/detect-language and GET /healthz. Replies are canned.
package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/i18n"
	"github.com/ashureev/chatwidget/internal/langdetect"
	"github.com/ashureev/chatwidget/internal/middleware"
	"github.com/ashureev/chatwidget/internal/session"
)

// canonicalPrefix marks session ids issued by the server.
const canonicalPrefix = "srv_"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Options configures a Server.
type Options struct {
	RateLimit      int
	RateWindow     time.Duration
	RetryAfter     int // seconds; 0 omits the header
	IssueSessions  bool
	MaxUploadBytes int64
	AuthToken      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server handles the chat endpoint.
type Server struct {
	opts    Options
	limiter *RateLimiter
	tr      *i18n.Translator
	logger  *slog.Logger

	mu      sync.Mutex
	aliases map[string]string   // client id -> canonical id
	issued  map[string]struct{} // canonical ids handed out
}

// New creates a Server. Zero-valued limits take sensible defaults.
func New(opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateWindow),
		tr:      i18n.New(),
		logger:  opts.Logger,
		aliases: make(map[string]string),
		issued:  make(map[string]struct{}),
	}
}

// Close releases the rate limiter.
func (s *Server) Close() {
	s.limiter.Close()
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/detect-language", s.handleDetect)
}

// Handler returns a router with the API and the standard middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(s.opts.AllowedOrigins))
	s.RegisterRoutes(r)
	return r
}

type chatRequest struct {
	SessionID string  `json:"session_id"`
	Message   string  `json:"message"`
	Language  string  `json:"language"`
	Intent    *string `json:"intent"`

	fileName string
	fileSize int64
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.opts.AuthToken != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.AuthToken {
		Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	key := r.Header.Get(session.HeaderName)
	if key == "" {
		key = r.RemoteAddr
	}
	if !s.limiter.Allow(key) {
		if s.opts.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(s.opts.RetryAfter))
		}
		s.logger.Info("Rate limit exceeded", "session_id", key)
		Error(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	req, reqErr := s.decodeChat(w, r)
	if reqErr != nil {
		s.logger.Debug("Rejected chat request", "status", reqErr.status, "error", reqErr.message)
		Error(w, reqErr.status, reqErr.message)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" && req.fileName == "" {
		Error(w, http.StatusBadRequest, "Message or file required")
		return
	}

	if req.SessionID == "" {
		req.SessionID = r.Header.Get(session.HeaderName)
	}
	sessionID := s.resolveSession(req.SessionID)

	detected := langdetect.Classify(req.Message, req.Language)
	lang, ok := domain.ParseLocale(detected.Lang)
	if !ok {
		if lang, ok = domain.ParseLocale(req.Language); !ok {
			lang = domain.LocaleEnglish
		}
	}

	s.logger.Info("Chat message",
		"session_id", sessionID,
		"language", lang,
		"has_file", req.fileName != "",
		"intent", derefString(req.Intent))

	JSON(w, http.StatusOK, domain.InboundReply{
		Reply:            s.reply(req, lang),
		SessionID:        sessionID,
		DetectedLanguage: string(lang),
		IsRTL:            lang == domain.LocaleArabic,
	})
}

// requestError is a client error answered with status and message.
type requestError struct {
	status  int
	message string
}

func badRequest(message string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message}
}

func tooLarge(message string) *requestError {
	return &requestError{status: http.StatusRequestEntityTooLarge, message: message}
}

// decodeChat reads either encoding.
func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, *requestError) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if isTooLarge(err) {
				return req, tooLarge("Request too large")
			}
			return req, badRequest("Invalid JSON body")
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		if isTooLarge(err) {
			return req, tooLarge("File too large")
		}
		return req, badRequest("Invalid multipart body")
	}
	req.SessionID = r.FormValue("session_id")
	req.Message = r.FormValue("message")
	req.Language = r.FormValue("language")
	if v := r.FormValue("intent"); v != "" {
		req.Intent = &v
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return req, badRequest("Invalid file part")
	default:
		defer file.Close()
		n, err := io.Copy(io.Discard, file)
		if err != nil {
			return req, badRequest("Invalid file part")
		}
		req.fileName = header.Filename
		req.fileSize = n
	}
	return req, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// resolveSession validates the client id and, when issuing is enabled,
// maps it to a stable server-issued canonical id.
func (s *Server) resolveSession(id string) string {
	id = strings.TrimSpace(id)
	if !sessionIDPattern.MatchString(id) {
		id = fmt.Sprintf("anon-%d", time.Now().Unix())
	}
	if !s.opts.IssueSessions {
		return id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issued[id]; ok {
		return id
	}
	if canonical, ok := s.aliases[id]; ok {
		return canonical
	}
	canonical := canonicalPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s.aliases[id] = canonical
	s.issued[canonical] = struct{}{}
	return canonical
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
		Hint string `json:"hint"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	JSON(w, http.StatusOK, langdetect.Classify(payload.Text, payload.Hint))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
