package changelog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changelog-digest/features/changelog"
	"changelog-digest/internal/store"
	"changelog-digest/internal/testutils"
)

func TestChangelogRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := changelog.NewPostgresRepo(store.NewConnWithDB(s.DB))
	ctx := context.Background()

	_, err := repo.FindLatest(ctx)
	assert.ErrorIs(t, err, changelog.ErrNotFound)

	// Records of one run share a timestamp; the last inserted must win.
	runAt := time.Now().UTC().Truncate(time.Microsecond)
	for i, text := range []string{"S1", "S2", "S3"} {
		err := repo.Insert(ctx, &changelog.Summary{
			Summary:    text,
			RunID:      "run-1",
			ChunkIndex: i,
			SourceRef:  "facebook/react/CHANGELOG.md",
			SourceHash: "hash",
			CreatedAt:  runAt,
		})
		require.NoError(t, err)
	}

	latest, err := repo.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S3", latest.Summary)
	assert.Equal(t, 2, latest.ChunkIndex)

	// A later run supersedes earlier ones.
	require.NoError(t, repo.Insert(ctx, &changelog.Summary{
		Summary:    "T1",
		RunID:      "run-2",
		SourceRef:  "facebook/react/CHANGELOG.md",
		SourceHash: "hash2",
		CreatedAt:  runAt.Add(time.Minute),
	}))

	latest, err = repo.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", latest.Summary)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
