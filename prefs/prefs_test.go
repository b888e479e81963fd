// ABOUTME: Tests for preference records, the manager and every storage backend
// ABOUTME: Exercises memory, badger, redis (miniredis) and charm-backed storage
package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/harperreed/dealflow/charm"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnVisibilityAccessors(t *testing.T) {
	cols := DefaultColumns()
	assert.Equal(t, []string{"clientName", "productName", "stage", "createdAt", "actions"}, cols.Fields())

	require.NoError(t, cols.Set("stage", false))
	v, err := cols.Get("stage")
	require.NoError(t, err)
	assert.False(t, v)
	assert.False(t, cols.Stage)

	err = cols.Set("bogus", false)
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.Equal(t, ColumnVisibility{ClientName: true, ProductName: true, CreatedAt: true, Actions: true}, cols)
}

func TestKanbanMetadataAccessors(t *testing.T) {
	meta := DefaultKanbanMetadata()
	require.NoError(t, meta.Set("createdAt", false))
	assert.False(t, meta.CreatedAt)

	_, err := meta.Get("stage")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestManagerDefaultsWhenEmpty(t *testing.T) {
	m := NewManager(NewMemoryStorage())
	assert.Equal(t, Defaults(), m.Load(context.Background()))
}

func TestManagerIgnoresCorruptValues(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, KeyTableColumns, []byte("{not json")))
	require.NoError(t, storage.Set(ctx, KeyCurrentView, []byte("grid")))
	require.NoError(t, storage.Set(ctx, KeyTheme, []byte("dark")))

	state := NewManager(storage).Load(ctx)
	assert.Equal(t, DefaultColumns(), state.Columns)
	assert.Equal(t, ViewTable, state.View)
	assert.Equal(t, ThemeDark, state.Theme)
}

func TestManagerSkipsUnchangedWrites(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	m := NewManager(storage)

	require.NoError(t, m.SaveView(ctx, ViewKanban))
	require.NoError(t, m.SaveView(ctx, ViewKanban))
	assert.Equal(t, 1, storage.Writes())

	require.NoError(t, m.SaveView(ctx, ViewTable))
	assert.Equal(t, 2, storage.Writes())

	assert.Error(t, m.SaveView(ctx, "grid"))
	assert.Error(t, m.SaveTheme(ctx, "blue"))
}

func TestManagersSharingStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	web := NewManager(storage)
	cli := NewManager(storage)

	require.NoError(t, web.SaveView(ctx, ViewKanban))
	require.NoError(t, cli.SaveView(ctx, ViewTable))
	require.NoError(t, web.SaveView(ctx, ViewKanban))

	raw, err := storage.Get(ctx, KeyCurrentView)
	require.NoError(t, err)
	assert.Equal(t, "kanban", string(raw))
	assert.Equal(t, 3, storage.Writes())

	// A value another manager already stored is not written again.
	require.NoError(t, cli.SaveView(ctx, ViewKanban))
	assert.Equal(t, 3, storage.Writes())
	assert.Equal(t, ViewKanban, cli.Load(ctx).View)
}

func TestStoredFormats(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	m := NewManager(storage)

	require.NoError(t, m.SaveView(ctx, ViewKanban))
	cols := DefaultColumns()
	cols.Actions = false
	require.NoError(t, m.SaveColumns(ctx, cols))

	raw, err := storage.Get(ctx, KeyCurrentView)
	require.NoError(t, err)
	assert.Equal(t, "kanban", string(raw))

	raw, err = storage.Get(ctx, KeyTableColumns)
	require.NoError(t, err)
	assert.JSONEq(t, `{"clientName":true,"productName":true,"stage":true,"createdAt":true,"actions":false}`, string(raw))
}

func TestScopedProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStorage()

	alice := NewManager(Scoped(base, "alice"))
	bob := NewManager(Scoped(base, "bob"))

	require.NoError(t, alice.SaveTheme(ctx, ThemeDark))
	assert.Equal(t, ThemeDark, alice.Load(ctx).Theme)
	assert.Equal(t, ThemeLight, bob.Load(ctx).Theme)
}

// roundTrip saves a non-default state through a fresh manager and reads it
// back through another one, as a restarted process would.
func roundTrip(t *testing.T, storage Storage) {
	t.Helper()
	ctx := context.Background()

	want := Defaults()
	want.View = ViewKanban
	want.Theme = ThemeDark
	want.Columns.CreatedAt = false
	want.Kanban.ProductName = false

	m := NewManager(storage)
	require.NoError(t, m.SaveView(ctx, want.View))
	require.NoError(t, m.SaveTheme(ctx, want.Theme))
	require.NoError(t, m.SaveColumns(ctx, want.Columns))
	require.NoError(t, m.SaveKanban(ctx, want.Kanban))

	assert.Equal(t, want, NewManager(storage).Load(ctx))
}

func TestRoundTripMemory(t *testing.T) {
	roundTrip(t, NewMemoryStorage())
}

func TestRoundTripBadger(t *testing.T) {
	dir := t.TempDir()
	storage, err := OpenBadger(dir)
	require.NoError(t, err)
	roundTrip(t, Scoped(storage, "default"))
	require.NoError(t, storage.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, ViewKanban, NewManager(Scoped(reopened, "default")).Load(context.Background()).View)
}

func TestRoundTripRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storage := NewRedisStorage(client)
	defer storage.Close()

	roundTrip(t, storage)
	assert.True(t, mr.Exists(redisKeyPrefix+KeyTheme))

	_, err = storage.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpenRedisURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	storage, err := OpenRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer storage.Close()

	_, err = OpenRedis(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRoundTripCharm(t *testing.T) {
	c := charm.NewTestClient(t)
	storage := FromKV(c, charm.ErrNotFound)

	_, err := storage.Get(context.Background(), KeyTheme)
	assert.True(t, errors.Is(err, ErrNotFound))

	roundTrip(t, Scoped(storage, "laptop"))
}
