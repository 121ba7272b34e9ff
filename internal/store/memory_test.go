package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, v map[string]any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func field(t *testing.T, rec Record, key string) any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal(rec.Data, &obj))
	return obj[key]
}

// backendContract runs the CRUD behaviour every Backend must share.
func backendContract(t *testing.T, b Backend) {
	ctx := context.Background()

	t.Run("insert assigns id and created_at", func(t *testing.T) {
		rec, err := b.Insert(ctx, KindFeedback, Record{Data: doc(t, map[string]any{"user_id": "u1"})})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.Equal(t, rec.ID, field(t, rec, "id"))
	})

	t.Run("insert rejects non-object bodies", func(t *testing.T) {
		_, err := b.Insert(ctx, KindFeedback, Record{Data: json.RawMessage(`[1,2]`)})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("list is newest first", func(t *testing.T) {
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, id := range []string{"a", "b", "c"} {
			_, err := b.Insert(ctx, KindSponsorships, Record{
				ID:        id,
				Data:      doc(t, map[string]any{"n": i}),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}
		recs, err := b.List(ctx, KindSponsorships)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, []string{"c", "b", "a"}, []string{recs[0].ID, recs[1].ID, recs[2].ID})
	})

	t.Run("insert with existing id replaces", func(t *testing.T) {
		_, err := b.Insert(ctx, KindSponsorships, Record{ID: "a", Data: doc(t, map[string]any{"n": 42})})
		require.NoError(t, err)
		recs, err := b.List(ctx, KindSponsorships)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for _, r := range recs {
			if r.ID == "a" {
				assert.EqualValues(t, 42, field(t, r, "n"))
			}
		}
	})

	t.Run("update merges fields", func(t *testing.T) {
		rec, err := b.Update(ctx, KindSponsorships, "b", Fields{"status": "active", "id": "hijack"})
		require.NoError(t, err)
		assert.Equal(t, "b", rec.ID)
		assert.Equal(t, "active", field(t, rec, "status"))
		assert.EqualValues(t, 1, field(t, rec, "n"))
		assert.Equal(t, "b", field(t, rec, "id"))
	})

	t.Run("update missing id", func(t *testing.T) {
		_, err := b.Update(ctx, KindSponsorships, "missing", Fields{"status": "active"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete then delete again", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, KindSponsorships, "c"))
		assert.ErrorIs(t, b.Delete(ctx, KindSponsorships, "c"), ErrNotFound)

		recs, err := b.List(ctx, KindSponsorships)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		recs, err := b.List(ctx, KindUsage)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

func TestMemoryBackend(t *testing.T) {
	backendContract(t, NewMemoryBackend())
}

func TestMemoryBackendReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	_, err := m.Insert(ctx, KindUsage, Record{ID: "x", Data: doc(t, map[string]any{"v": 1})})
	require.NoError(t, err)

	recs, err := m.List(ctx, KindUsage)
	require.NoError(t, err)
	recs[0].Data[0] = 'X'

	again, err := m.List(ctx, KindUsage)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0].Data[0])
}
