package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojvmehra/strob-store/internal/catalog"
)

func setupTestDB(t *testing.T) *catalog.Repository {
	// Use in-memory database for tests
	repo, err := catalog.NewRepository(":memory:")
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations("../../migrations/sqlite"))

	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestList_ReturnsSeededProducts(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 6)

	assert.Equal(t, "CONTENT CREATOR BUNDLE", products[0].Title)
	assert.Equal(t, float64(49), products[0].Price)
	assert.Equal(t, []string{"30,000+ ASSETS", "ANIMATED ELEMENTS", "SFX LIBRARY", "PREMIERE & AE"}, products[0].Features)
}

func TestGet_ReturnsProduct(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "MOTION GRAPHICS V.10", product.Title)
	assert.Equal(t, "ASSET PACK", product.Category)
	assert.Equal(t, float64(39), product.Price)
}

func TestGet_UnknownID_ReturnsNotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Get(context.Background(), 999)
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
}

func TestGet_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, 1)
	assert.Error(t, err)
}
