package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/testutil"
)

func TestAssetRepository_Domains(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssetRepository(db)
	ctx := context.Background()
	a := testutil.TestName(t, db, testutil.WithNameText("Acme"))
	b := testutil.TestName(t, db, testutil.WithNameText("acme"))

	err := repo.CreateDomains(ctx, []*model.Domain{
		{DomainName: "acme.io", NameID: a.ID},
		{DomainName: "acme.dev", NameID: a.ID},
	})
	require.NoError(t, err)

	found, err := repo.ListDomains(ctx, []string{b.ID, a.ID})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := repo.ListDomains(ctx, []string{b.ID})
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.NoError(t, repo.CreateDomains(ctx, nil))
}

func TestAssetRepository_NpmNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssetRepository(db)
	ctx := context.Background()
	name := testutil.TestName(t, db)

	err := repo.CreateNpmNames(ctx, []*model.NpmName{{NpmName: "npm i acme", NameID: name.ID}})
	require.NoError(t, err)

	found, err := repo.ListNpmNames(ctx, name.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "npm i acme", found[0].NpmName)
}

func TestAssetRepository_LatestLogo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssetRepository(db)
	ctx := context.Background()
	name := testutil.TestName(t, db)

	_, err := repo.LatestLogo(ctx, name.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.CreateLogo(ctx, &model.Logo{LogoURL: "https://cdn/old.png", NameID: name.ID, CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.CreateLogo(ctx, &model.Logo{LogoURL: "https://cdn/new.png", NameID: name.ID}))

	logo, err := repo.LatestLogo(ctx, name.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/new.png", logo.LogoURL)
}

func TestAssetRepository_LatestOnePager(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssetRepository(db)
	ctx := context.Background()
	name := testutil.TestName(t, db)

	require.NoError(t, repo.CreateOnePager(ctx, &model.OnePager{PdfURL: "https://docs/acme.pdf", NameID: name.ID}))

	onePager, err := repo.LatestOnePager(ctx, name.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://docs/acme.pdf", onePager.PdfURL)
}
