package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.Clock = func() time.Time { return now }
	return s, &now
}

func sampleJob(user string) Job {
	return Job{
		UserID:          user,
		SessionID:       "sess-1",
		DatasetFilename: "support.jsonl",
		TotalExamples:   120,
		TotalTokens:     4800,
		QualityScore:    0.85,
		Task:            "qa",
		Deployment:      "cloud",
		ModelID:         "meta-llama/Llama-3.2-3B-Instruct",
		ModelName:       "Llama 3.2 3B",
		ModelScore:      95,
	}
}

func TestCreateGet(t *testing.T) {
	s, now := openTest(t)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleJob("alice"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, StatusCreated, created.Status)
	require.Equal(t, *now, created.CreatedAt)

	got, err := s.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCreate_RequiresUser(t *testing.T) {
	s, _ := openTest(t)
	_, err := s.Create(context.Background(), sampleJob(""))
	require.Error(t, err)
}

func TestGet_ScopedToUser(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()
	created, err := s.Create(ctx, sampleJob("alice"))
	require.NoError(t, err)

	_, err = s.Get(ctx, "bob", created.ID)
	require.ErrorIs(t, err, ErrJobNotFound)
	_, err = s.Get(ctx, "alice", "missing")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestList(t *testing.T) {
	s, now := openTest(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		j, err := s.Create(ctx, sampleJob("alice"))
		require.NoError(t, err)
		ids = append(ids, j.ID)
		*now = now.Add(time.Minute)
	}
	_, err := s.Create(ctx, sampleJob("bob"))
	require.NoError(t, err)

	list, err := s.List(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})

	page, err := s.List(ctx, "alice", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, ids[1], page[0].ID)

	empty, err := s.List(ctx, "carol", 10, 0)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestUpdate(t *testing.T) {
	s, now := openTest(t)
	ctx := context.Background()
	created, err := s.Create(ctx, sampleJob("alice"))
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	name, status := "finetune_llama.ipynb", StatusNotebookReady
	updated, err := s.Update(ctx, "alice", created.ID, Update{NotebookFilename: &name, Status: &status})
	require.NoError(t, err)
	require.Equal(t, name, updated.NotebookFilename)
	require.Equal(t, StatusNotebookReady, updated.Status)
	require.Empty(t, updated.ColabURL)
	require.Equal(t, *now, updated.UpdatedAt)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = s.Update(ctx, "alice", created.ID, Update{})
	require.ErrorIs(t, err, ErrNoUpdates)
	_, err = s.Update(ctx, "bob", created.ID, Update{Status: &status})
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestDelete(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()
	created, err := s.Create(ctx, sampleJob("alice"))
	require.NoError(t, err)

	require.ErrorIs(t, s.Delete(ctx, "bob", created.ID), ErrJobNotFound)
	require.NoError(t, s.Delete(ctx, "alice", created.ID))
	require.ErrorIs(t, s.Delete(ctx, "alice", created.ID), ErrJobNotFound)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultDBName)
	s, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	created, err := s.Create(ctx, sampleJob("alice"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, path, reopened.Path())
	got, err := reopened.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ModelID, got.ModelID)
}
