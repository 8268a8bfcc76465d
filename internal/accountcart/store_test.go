package accountcart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/manojvmehra/strob-store/internal/domain"
)

func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations/postgres",
	}

	store, err := NewPostgresStore(creds)
	require.NoError(t, err)

	err = store.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func snapshot(productID int64, price float64) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ProductID: productID,
		Title:     "CONTENT CREATOR BUNDLE",
		Category:  "PROMPT PACK",
		Price:     price,
		Image:     "/images/creator-bundle.png",
		Features:  []string{"30,000+ ASSETS"},
	}
}

func TestRead_NoCartYet_ReturnsEmpty(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	items, err := store.Read(context.Background(), "u-none")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAppend_CreatesCartAndItem(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	items, err := store.Append(ctx, "u1", snapshot(1, 49))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, float64(49), items[0].Snapshot.Price)
	assert.Equal(t, []string{"30,000+ ASSETS"}, items[0].Snapshot.Features)

	// Second append reuses the existing cart row.
	items, err = store.Append(ctx, "u1", snapshot(3, 39))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestRead_PreservesInsertionOrder(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	_, err := store.Append(ctx, "u1", snapshot(1, 49))
	require.NoError(t, err)
	_, err = store.Append(ctx, "u1", snapshot(3, 39))
	require.NoError(t, err)
	_, err = store.Append(ctx, "u1", snapshot(5, 19))
	require.NoError(t, err)

	items, err := store.Read(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, int64(1), items[0].Snapshot.ProductID)
	assert.Equal(t, int64(3), items[1].Snapshot.ProductID)
	assert.Equal(t, int64(5), items[2].Snapshot.ProductID)
}

func TestRemoveByID(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	items, err := store.Append(ctx, "u1", snapshot(1, 49))
	require.NoError(t, err)
	items, err = store.Append(ctx, "u1", snapshot(3, 39))
	require.NoError(t, err)

	items, err = store.RemoveByID(ctx, "u1", items[0].ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].Snapshot.ProductID)
}

func TestRemoveByID_OtherUsersItem_IsScopedOut(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	owned, err := store.Append(ctx, "u1", snapshot(1, 49))
	require.NoError(t, err)

	// u2 cannot delete u1's row even with a valid id.
	_, err = store.RemoveByID(ctx, "u2", owned[0].ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	items, err := store.Read(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemoveByID_MalformedID(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.RemoveByID(context.Background(), "u1", "not-a-uuid")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestClear(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	_, err := store.Append(ctx, "u1", snapshot(1, 49))
	require.NoError(t, err)
	_, err = store.Append(ctx, "u1", snapshot(3, 39))
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "u1"))

	items, err := store.Read(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	// Clearing a user with no cart is fine.
	require.NoError(t, store.Clear(ctx, "u-none"))
}
