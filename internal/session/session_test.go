package session

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/chatwidget/internal/store"
)

var idPattern = regexp.MustCompile(`^web_[a-f0-9]{12}$`)

func TestGetOrCreateIsStable(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemory())

	first, err := s.GetOrCreate(ctx)
	require.NoError(t, err)
	second, err := s.GetOrCreate(ctx)
	require.NoError(t, err)

	assert.Regexp(t, idPattern, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestGetOrCreateSurvivesReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := store.NewFile(dir)
	require.NoError(t, err)
	first, err := NewStore(kv).GetOrCreate(ctx)
	require.NoError(t, err)

	reopened, err := store.NewFile(dir)
	require.NoError(t, err)
	second, err := NewStore(reopened).GetOrCreate(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestGetOrCreateReplacesCorruptRecord(t *testing.T) {
	ctx := context.Background()

	for name, raw := range map[string]string{
		"not json": "{oops",
		"empty id": `{"session_id":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := store.NewMemory()
			require.NoError(t, kv.Put(ctx, DefaultKey, []byte(raw)))

			sess, err := NewStore(kv).GetOrCreate(ctx)
			require.NoError(t, err)
			assert.Regexp(t, idPattern, sess.ID)

			stored, err := kv.Get(ctx, DefaultKey)
			require.NoError(t, err)
			assert.Contains(t, string(stored), sess.ID)
		})
	}
}

func TestAdoptReplacesIDKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewStore(store.NewMemory(), WithClock(func() time.Time { return created }))

	before, err := s.GetOrCreate(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Adopt(ctx, "srv-123"))

	after, err := s.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "srv-123", after.ID)
	assert.NotEqual(t, before.ID, after.ID)
	assert.True(t, created.Equal(after.CreatedAt))
}

func TestAdoptSameOrEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: store.NewMemory()}
	s := NewStore(kv)

	sess, err := s.GetOrCreate(ctx)
	require.NoError(t, err)
	writes := kv.puts

	require.NoError(t, s.Adopt(ctx, sess.ID))
	require.NoError(t, s.Adopt(ctx, ""))
	require.NoError(t, s.Adopt(ctx, "   "))
	assert.Equal(t, writes, kv.puts)
}

func TestClearStartsNewSession(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemory(), WithKey("custom_key"))

	first, err := s.GetOrCreate(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	second, err := s.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "custom_key", s.Key())
}

func TestGetOrCreateKeepsIDWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	kv := &failingStore{Store: store.NewMemory()}
	s := NewStore(kv)

	first, err := s.GetOrCreate(ctx)
	require.Error(t, err)
	require.True(t, first.Valid())

	second, err := s.GetOrCreate(ctx)
	require.Error(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateKeepsRecordWhenReadFails(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	original, err := NewStore(mem).GetOrCreate(ctx)
	require.NoError(t, err)

	kv := &flakyGetStore{Store: mem, failures: 1}
	s := NewStore(kv)

	during, err := s.GetOrCreate(ctx)
	require.Error(t, err)
	assert.True(t, during.Valid())
	assert.NotEqual(t, original.ID, during.ID)

	stored, err := mem.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(stored), original.ID)

	after, err := NewStore(kv).GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, original.ID, after.ID)
}

func TestGetOrCreateReadFailureKeepsCachedID(t *testing.T) {
	ctx := context.Background()
	kv := &flakyGetStore{Store: store.NewMemory()}
	s := NewStore(kv)

	first, err := s.GetOrCreate(ctx)
	require.NoError(t, err)

	kv.failures = 2
	second, err := s.GetOrCreate(ctx)
	require.Error(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := s.GetOrCreate(ctx)
	require.Error(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestSQLiteBackedSession(t *testing.T) {
	ctx := context.Background()
	kv, err := store.NewSQLite(filepath.Join(t.TempDir(), "widget.db"))
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()

	s := NewStore(kv)
	require.NoError(t, s.Adopt(ctx, "srv-9"))

	sess, err := s.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "srv-9", sess.ID)
}

func TestNewIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Regexp(t, idPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

type countingStore struct {
	store.Store
	puts int
}

func (c *countingStore) Put(ctx context.Context, key string, value []byte) error {
	c.puts++
	return c.Store.Put(ctx, key, value)
}

type failingStore struct {
	store.Store
}

func (f *failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type flakyGetStore struct {
	store.Store
	failures int
}

func (f *flakyGetStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("disk I/O error")
	}
	return f.Store.Get(ctx, key)
}
