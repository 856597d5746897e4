package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ashureev/chatwidget/internal/auth"
	"github.com/ashureev/chatwidget/internal/config"
	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/i18n"
	"github.com/ashureev/chatwidget/internal/session"
	"github.com/ashureev/chatwidget/internal/store"
	"github.com/ashureev/chatwidget/internal/transport"
	"github.com/ashureev/chatwidget/internal/widget"
)

// app is the wired widget plus the resources it owns.
type app struct {
	cfg      *config.Config
	kv       store.Store
	sessions *session.Store
	widget   *widget.Widget
	renderer *termRenderer
}

// loadConfig applies .env, the config file and flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	path := opts.configFile
	if path == "" {
		path = os.Getenv(config.FileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if opts.endpoint != "" {
		cfg.Endpoint = opts.endpoint
	}
	if opts.locale != "" {
		l, ok := domain.ParseLocale(opts.locale)
		if !ok {
			return nil, fmt.Errorf("unsupported locale %q", opts.locale)
		}
		cfg.DefaultLocale = string(l)
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, w io.Writer) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)
}

// openSessions opens the configured backend and the session record on it.
func openSessions(ctx context.Context, cfg *config.Config) (store.Store, *session.Store, error) {
	kv, err := store.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	if err := kv.Ping(ctx); err != nil {
		kv.Close()
		return nil, nil, fmt.Errorf("session store health check: %w", err)
	}
	return kv, session.NewStore(kv, session.WithKey(cfg.SessionKey)), nil
}

// resolveToken reads the host page, when configured, before falling back to
// the configured token.
func resolveToken(ctx context.Context, cfg *config.Config, client *http.Client) string {
	src := auth.Sources{Global: cfg.AuthToken}
	if cfg.AuthPage != "" {
		page, err := auth.LoadPage(ctx, client, cfg.AuthPage)
		if err != nil {
			slog.Warn("Host page unavailable, using configured token", "page", cfg.AuthPage, "error", err)
		} else {
			defer page.Close()
			src.Page = page
		}
	}
	return auth.Resolve(src)
}

func newApp(ctx context.Context, opts *rootOptions, out, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg, logOut)

	kv, sessions, err := openSessions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	tr := i18n.New()
	renderer := newTermRenderer(out, tr)

	w, err := widget.New(widget.Options{
		Endpoint:   cfg.Endpoint,
		AuthToken:  resolveToken(ctx, cfg, client),
		Locale:     cfg.Locale(),
		Sender:     transport.New(client),
		Sessions:   sessions,
		Renderer:   renderer,
		Translator: tr,
	})
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("create widget: %w", err)
	}

	slog.Debug("Widget ready",
		"endpoint", cfg.Endpoint,
		"locale", cfg.Locale(),
		"store", cfg.StoreDriver)

	return &app{
		cfg:      cfg,
		kv:       kv,
		sessions: sessions,
		widget:   w,
		renderer: renderer,
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		slog.Error("Failed to close session store", "error", err)
	}
}

// readAttachment loads path as an attachment within the upload limit.
func (a *app) readAttachment(path string) (*domain.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}
	if info.Size() > a.cfg.MaxUploadBytes() {
		return nil, fmt.Errorf("attachment %s exceeds %d MB", path, a.cfg.MaxUploadMB)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return &domain.Attachment{Name: info.Name(), Data: data}, nil
}

// outcomeError turns failed outcomes into a command error for the exit code.
func outcomeError(out widget.Outcome) error {
	switch out.Kind {
	case widget.KindReply:
		return nil
	case widget.KindEmpty:
		return fmt.Errorf("nothing to send: provide a message or --file")
	default:
		return fmt.Errorf("%s: %s", out.Kind, out.Text)
	}
}
