package repository

import (
	"context"
	"testing"

	"guild-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestLocal(t)

	second := obsAt("b", "p1", domain.KindIncremental, 50, 2_000)
	second.ScreenshotRef = "data:image/png;base64,AAAA"
	first := obsAt("a", "p1", domain.KindInitial, 1_000, 1_000)
	first.ScreenshotRef = "https://cdn.example/a.png"

	_, err := store.Append(ctx, second)
	require.NoError(t, err)
	_, err = store.Append(ctx, first)
	require.NoError(t, err)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0])
	assert.Equal(t, "b", all[1].ID)
	assert.Empty(t, all[1].ScreenshotRef, "inline payloads are not mirrored")
	assert.Equal(t, domain.Damage(50), all[1].TicketDamage)
}

func TestLocalStoreGeneratesIDs(t *testing.T) {
	store := newTestLocal(t)
	stored, err := store.Append(context.Background(), obsAt("", "p1", domain.KindInitial, 1, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
}

func TestLocalStoreDuplicateAppendIgnored(t *testing.T) {
	ctx := context.Background()
	store := newTestLocal(t)
	o := obsAt("a", "p1", domain.KindInitial, 1, 1)
	_, err := store.Append(ctx, o)
	require.NoError(t, err)
	_, err = store.Append(ctx, o)
	require.NoError(t, err)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLocalStoreRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := newTestLocal(t)
	for _, o := range []domain.Observation{
		obsAt("a", "p1", domain.KindInitial, 1, 1),
		obsAt("b", "p1", domain.KindIncremental, 2, 2),
		obsAt("c", "p2", domain.KindInitial, 3, 3),
	} {
		_, err := store.Append(ctx, o)
		require.NoError(t, err)
	}

	require.NoError(t, store.Remove(ctx, "b"))
	require.NoError(t, store.Remove(ctx, "missing"))
	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.Clear(ctx))
	all, err = store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLocalStoreReplaceAll(t *testing.T) {
	ctx := context.Background()
	store := newTestLocal(t)
	_, err := store.Append(ctx, obsAt("old", "p1", domain.KindInitial, 1, 1))
	require.NoError(t, err)

	var fresh []domain.Observation
	for i := 0; i < 250; i++ {
		fresh = append(fresh, obsAt("", "p2", domain.KindIncremental, domain.Damage(i), int64(i+10)))
	}
	require.NoError(t, store.ReplaceAll(ctx, fresh))

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 250)
	for _, o := range all {
		assert.NotEqual(t, "old", o.ID)
		assert.Equal(t, "p2", o.PlayerKey)
	}
}
