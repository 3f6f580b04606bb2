package seeder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodian/internal/audit/outbox"
	"custodian/internal/lifecycle/classifier"
	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/store/account"
)

func TestSeedAllCoversEveryBand(t *testing.T) {
	ctx := context.Background()
	store := account.NewInMemory(outbox.NewInMemoryStore())
	s := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.SeedAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(demoAccounts), n)

	inactive, err := store.ListInactiveCandidates(ctx, classifier.InactiveCutoff(now))
	require.NoError(t, err)
	levels := map[models.InactivityLevel]bool{}
	for _, c := range inactive {
		levels[classifier.ClassifyInactivity(c.Account.LastLoginAt, c.Account.CreatedAt, now).Level] = true
	}
	for _, level := range []models.InactivityLevel{
		models.InactivityWarning1, models.InactivityWarning2, models.InactivityWarning3, models.InactivityCritical,
	} {
		assert.True(t, levels[level], "missing %s", level)
	}

	low, err := store.ListLowAccuracyCandidates(ctx, classifier.DefaultAccuracyThreshold)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Foxglove People", low[0].Account.CompanyName)
}
