package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/testutil"
)

func TestNameRepository_CountByCreatorSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)
	account := testutil.TestProfile(t, db)

	now := time.Now()
	testutil.TestName(t, db, testutil.WithCreator(account.ID))
	testutil.TestName(t, db, testutil.WithCreator(account.ID), testutil.WithCreatedAt(now.AddDate(0, 0, -10)))
	testutil.TestName(t, db, testutil.WithCreator(account.ID), testutil.WithCreatedAt(now.AddDate(0, 0, -40)))
	testutil.TestName(t, db) // 其他会话

	count, err := repo.CountByCreatorSince(context.Background(), account.ID, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNameRepository_CountBySessionSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)
	sessionID := "8d3c3f7e-2b1a-4c52-9a0e-2f8b0f1c6d11"

	testutil.TestName(t, db, testutil.WithSession(sessionID))
	testutil.TestName(t, db, testutil.WithSession(sessionID))
	testutil.TestName(t, db, testutil.WithSession(sessionID), testutil.WithCreatedAt(time.Now().AddDate(0, -2, 0)))

	count, err := repo.CountBySessionSince(context.Background(), sessionID, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNameRepository_TransactionRollback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)
	ctx := context.Background()
	account := testutil.TestProfile(t, db)

	err := repo.Transaction(ctx, func(tx *NameRepository) error {
		require.NoError(t, tx.LockAccount(ctx, account.ID))
		require.NoError(t, tx.Create(ctx, &model.Name{Name: "Rollback", CreatedBy: &account.ID}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	count, err := repo.CountByCreatorSince(ctx, account.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNameRepository_LockAccount_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)

	err := repo.LockAccount(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.NoError(t, err)
}

func TestNameRepository_ListIDsByText(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)

	a := testutil.TestName(t, db, testutil.WithNameText("Acme"))
	b := testutil.TestName(t, db, testutil.WithNameText("ACME"))
	testutil.TestName(t, db, testutil.WithNameText("Acme Labs"))

	ids, err := repo.ListIDsByText(context.Background(), "acme")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestNameRepository_ListByCreator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)
	ctx := context.Background()
	account := testutil.TestProfile(t, db)

	older := testutil.TestName(t, db, testutil.WithCreator(account.ID), testutil.WithCreatedAt(time.Now().Add(-time.Hour)), testutil.WithFavorited(true))
	newer := testutil.TestName(t, db, testutil.WithCreator(account.ID))

	all, err := repo.ListByCreator(ctx, account.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	favorites, err := repo.ListByCreator(ctx, account.ID, true, 0)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, older.ID, favorites[0].ID)
}

func TestNameRepository_Claim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)
	ctx := context.Background()
	owner := testutil.TestProfile(t, db)
	other := testutil.TestProfile(t, db)

	free := testutil.TestName(t, db)
	taken := testutil.TestName(t, db, testutil.WithCreator(owner.ID))

	claimed, err := repo.Claim(ctx, []string{free.ID, taken.ID, "missing"}, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{free.ID}, claimed)

	got, err := repo.GetByID(ctx, free.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnedBy(other.ID))

	kept, err := repo.GetByID(ctx, taken.ID)
	require.NoError(t, err)
	assert.True(t, kept.OwnedBy(owner.ID))
}

func TestNameRepository_UpdateFavorited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewNameRepository(db)
	ctx := context.Background()
	name := testutil.TestName(t, db)

	require.NoError(t, repo.UpdateFavorited(ctx, name.ID, true))

	got, err := repo.GetByID(ctx, name.ID)
	require.NoError(t, err)
	assert.True(t, got.Favorited)
}
