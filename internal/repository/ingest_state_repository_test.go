package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestStateRepository_GetLastUID_DefaultsToZero(t *testing.T) {
	repo := NewIngestStateRepository(newTestDB(t))

	uid, err := repo.GetLastUID(context.Background(), "imap", "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), uid)
}

func TestIngestStateRepository_SaveAndAdvance(t *testing.T) {
	repo := NewIngestStateRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveLastUID(ctx, "imap", "INBOX", 42))
	uid, err := repo.GetLastUID(ctx, "imap", "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), uid)

	require.NoError(t, repo.SaveLastUID(ctx, "imap", "INBOX", 100))
	uid, err = repo.GetLastUID(ctx, "imap", "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(100), uid)
}

func TestIngestStateRepository_WatermarkNeverDecreases(t *testing.T) {
	repo := NewIngestStateRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveLastUID(ctx, "imap", "INBOX", 100))

	// Saving a lower value succeeds but the stored cursor stays put.
	require.NoError(t, repo.SaveLastUID(ctx, "imap", "INBOX", 50))
	uid, err := repo.GetLastUID(ctx, "imap", "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(100), uid)
}

func TestIngestStateRepository_CursorsArePerMailbox(t *testing.T) {
	repo := NewIngestStateRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveLastUID(ctx, "imap", "INBOX", 10))
	require.NoError(t, repo.SaveLastUID(ctx, "imap", "Archive", 99))

	uid, err := repo.GetLastUID(ctx, "imap", "INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(10), uid)

	uid, err = repo.GetLastUID(ctx, "imap", "Archive")
	require.NoError(t, err)
	assert.Equal(t, uint32(99), uid)
}
