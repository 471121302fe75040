package roster_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/database"
	"github.com/mauv0809/chess-club/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (roster.Store, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return roster.New(db), db, teardown
}

func TestAddStudent_AssignsSequentialIDs(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	first, err := store.AddStudent(ctx, roster.NewStudent{Name: "Ada", Class: "9"})
	require.NoError(t, err)
	second, err := store.AddStudent(ctx, roster.NewStudent{Name: "Bobby", Class: "10"})
	require.NoError(t, err)

	assert.Equal(t, "00001", first.ID)
	assert.Equal(t, "00002", second.ID)
	assert.False(t, first.PaidEntry, "new students have not paid")
	assert.Zero(t, first.Points)
	assert.Zero(t, first.MatchesPlayed)
}

func TestAddStudent_ContinuesAfterImportedIDs(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()

	_, err := db.Exec(`INSERT INTO students (student_id, name) VALUES ('00042', 'Imported')`)
	require.NoError(t, err)

	s, err := store.AddStudent(context.Background(), roster.NewStudent{Name: "Next"})
	require.NoError(t, err)
	assert.Equal(t, "00043", s.ID)
}

func TestAddStudent_RequiresName(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := store.AddStudent(context.Background(), roster.NewStudent{Name: "   "})
	assert.ErrorIs(t, err, club.ErrValidation)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateStudent(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	s, err := store.AddStudent(ctx, roster.NewStudent{Name: "Ada"})
	require.NoError(t, err)

	t.Run("updates editable fields", func(t *testing.T) {
		updated, err := store.UpdateStudent(ctx, s.ID, roster.StudentUpdate{Name: "Ada L.", Class: "11", Roll: "7", PaidEntry: true})
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", updated.Name)
		assert.Equal(t, "11", updated.Class)
		assert.Equal(t, "7", updated.Roll)
		assert.True(t, updated.PaidEntry)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := store.UpdateStudent(ctx, "99999", roster.StudentUpdate{Name: "Ghost"})
		assert.ErrorIs(t, err, club.ErrNotFound)
	})
}

func TestTogglePaidAndEligibility(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.AddStudent(ctx, roster.NewStudent{Name: "Ada"})
	require.NoError(t, err)
	_, err = store.AddStudent(ctx, roster.NewStudent{Name: "Bobby"})
	require.NoError(t, err)

	ids, err := store.EligibleIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	toggled, err := store.TogglePaid(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.PaidEntry)

	ids, err = store.EligibleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids)

	toggled, err = store.TogglePaid(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.PaidEntry)

	_, err = store.TogglePaid(ctx, "00404")
	assert.ErrorIs(t, err, club.ErrNotFound)
}

func TestMarkAllPaid(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	for _, name := range []string{"Ada", "Bobby", "Capablanca"} {
		_, err := store.AddStudent(ctx, roster.NewStudent{Name: name})
		require.NoError(t, err)
	}
	_, err := store.TogglePaid(ctx, "00002")
	require.NoError(t, err)

	n, err := store.MarkAllPaid(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, err := store.EligibleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00001", "00002", "00003"}, ids)
}

func TestListStudents(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	for _, name := range []string{"Magnus", "Judit", "Hikaru"} {
		_, err := store.AddStudent(ctx, roster.NewStudent{Name: name})
		require.NoError(t, err)
	}

	t.Run("lists all ordered by id", func(t *testing.T) {
		all, err := store.ListStudents(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Magnus", all[0].Name)
		assert.Equal(t, "Hikaru", all[2].Name)
	})

	t.Run("searches by name case-insensitively", func(t *testing.T) {
		found, err := store.ListStudents(ctx, "jud")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Judit", found[0].Name)
	})

	t.Run("searches by id", func(t *testing.T) {
		found, err := store.ListStudents(ctx, "00003")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Hikaru", found[0].Name)
	})

	t.Run("no match returns empty slice", func(t *testing.T) {
		found, err := store.ListStudents(ctx, "Bobby")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
