package run_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changelog-digest/features/run"
	"changelog-digest/internal/store"
	"changelog-digest/internal/testutils"
)

func TestRunRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := run.NewPostgresRepo(store.NewConnWithDB(s.DB))
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"r1", "r2", "r3"} {
		start := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, &run.Run{
			ID:         id,
			Trigger:    "schedule",
			Status:     "succeeded",
			Chunks:     i,
			Committed:  i,
			StartedAt:  start,
			FinishedAt: start.Add(time.Second),
		}))
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
