package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := Record{ServiceID: "svc-1", CheckpointID: "ck-1", Data: []byte("snapshot")}
	require.NoError(t, s.Save(ctx, rec))

	got, ok, err := s.Get(ctx, "svc-1", "ck-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Data, got.Data)
}

func TestMemoryStore_Latest_TracksMostRecentSave(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Record{ServiceID: "svc-1", CheckpointID: "ck-1"}))
	require.NoError(t, s.Save(ctx, Record{ServiceID: "svc-1", CheckpointID: "ck-2"}))

	latest, ok, err := s.Latest(ctx, "svc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ck-2", latest.CheckpointID)
}

func TestMemoryStore_Latest_UnknownServiceNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Latest(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Get_MissingCheckpointNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Get(context.Background(), "svc-1", "ck-missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
