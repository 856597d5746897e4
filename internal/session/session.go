// Package session owns the durable client-side conversation identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/store"
	"github.com/google/uuid"
)

const (
	// DefaultKey is the record key the session is persisted under.
	DefaultKey = "chat_widget_session"
	// HeaderName carries the session id on every outbound request.
	HeaderName = "X-Client-Session"

	idPrefix     = "web_"
	idSuffixSize = 12
)

// errCorrupt marks a record that was read but could not be used.
var errCorrupt = errors.New("corrupt session record")

// Store creates, persists and replaces the single live Session.
type Store struct {
	kv  store.Store
	key string
	now func() time.Time

	mu      sync.Mutex
	current *domain.Session
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the record key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a session store persisting through kv.
func NewStore(kv store.Store, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		key: DefaultKey,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh namespaced session identifier.
func NewID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return idPrefix + raw[:idSuffixSize]
}

// GetOrCreate returns the persisted session, synthesizing and persisting a new
// one when none exists or the stored record cannot be parsed.
//
// If persisting a fresh session fails the session is still returned, together
// with the error, and stays stable for the rest of the process. A failed read
// never overwrites the stored record.
func (s *Store) GetOrCreate(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.load(ctx)
	if err == nil {
		s.current = &loaded
		return loaded, nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
	case errors.Is(err, errCorrupt):
		slog.Warn("discarding unreadable session record", "key", s.key, "error", err)
	default:
		return s.unreadable(err), err
	}

	if s.current.Valid() {
		// Persisting failed earlier; keep the id stable and try again.
		return *s.current, s.save(ctx, *s.current)
	}

	fresh := domain.Session{ID: NewID(), CreatedAt: s.now().UTC()}
	s.current = &fresh
	slog.Info("created client session", "session_id", fresh.ID)

	if err := s.save(ctx, fresh); err != nil {
		return fresh, err
	}
	return fresh, nil
}

// unreadable returns an in-process session while the store cannot be read.
func (s *Store) unreadable(err error) domain.Session {
	if s.current.Valid() {
		return *s.current
	}
	fresh := domain.Session{ID: NewID(), CreatedAt: s.now().UTC()}
	s.current = &fresh
	slog.Warn("session store unreadable, using unsaved session",
		"key", s.key, "session_id", fresh.ID, "error", err)
	return fresh
}

// Adopt replaces the stored id with a server-issued one. CreatedAt is kept.
// It is a no-op when id is empty or already current.
func (s *Store) Adopt(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx)
	if err != nil {
		if s.current.Valid() {
			cur = *s.current
		} else {
			cur = domain.Session{CreatedAt: s.now().UTC()}
		}
	}
	if cur.ID == id {
		s.current = &cur
		return nil
	}

	slog.Info("adopting server session id", "previous", cur.ID, "session_id", id)
	cur.ID = id
	s.current = &cur
	return s.save(ctx, cur)
}

// Clear deletes the persisted session. The next GetOrCreate starts a new one.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// Key returns the record key.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) load(ctx context.Context) (domain.Session, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("read session record: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if !sess.Valid() {
		return domain.Session{}, fmt.Errorf("%w: no id", errCorrupt)
	}
	return sess, nil
}

func (s *Store) save(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
