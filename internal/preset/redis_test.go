package preset

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/postcraft/internal/compose"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStoreSaveAndList(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx,
		compose.Preset{Name: "zeta", Templates: map[string]string{compose.TemplateInstruction: "z {topic}"}},
		compose.Preset{Name: "alpha", Templates: map[string]string{compose.TemplateInstruction: "a {topic}"}},
	))

	presets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "alpha", presets[0].Name)
	assert.Equal(t, "a {topic}", presets[0].Templates[compose.TemplateInstruction])
	assert.Equal(t, "zeta", presets[1].Name)
}

func TestRedisStoreSkipsMalformedEntries(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, compose.Preset{Name: "good"}))
	mr.HSet(presetsKey, "bad", "{not json")

	presets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "good", presets[0].Name)
}

func TestRedisStoreEmpty(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client)

	require.NoError(t, store.Save(context.Background()))
	presets, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestDialRedis(t *testing.T) {
	_, mr := setupTestRedis(t)

	store, err := DialRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = DialRedis(context.Background(), "not a url")
	require.Error(t, err)
}

func TestRedisStoreWithManager(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, compose.Preset{Name: "shared", Templates: map[string]string{compose.TemplateInstructionTags: "tags {text}"}}))

	m := NewManager(store)
	require.NoError(t, m.Activate(ctx, "shared"))
	got, err := m.Get(compose.TemplateInstructionTags)
	require.NoError(t, err)
	assert.Equal(t, "tags {text}", got)
}
