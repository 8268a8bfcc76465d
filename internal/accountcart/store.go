package accountcart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/manojvmehra/strob-store/internal/domain"
)

var ErrItemNotFound = errors.New("cart item not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Store is the account cart contract the cart core consumes. Unlike the guest
// store, every failure here surfaces as a distinguishable error: account carts
// are durable state other sessions may observe.
type Store interface {
	Read(ctx context.Context, userID string) ([]domain.LineItem, error)
	Append(ctx context.Context, userID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error)
	RemoveByID(ctx context.Context, userID, itemID string) ([]domain.LineItem, error)
	Clear(ctx context.Context, userID string) error
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cred *Credentials) (*PostgresStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// DB exposes the connection pool so other repositories (profiles) can share it.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Read fetches the cart owned by userID. A user with no cart row yet gets an
// empty sequence; that is normal, not an error.
func (s *PostgresStore) Read(ctx context.Context, userID string) ([]domain.LineItem, error) {
	query := `SELECT ci.id, ci.quantity, ci.snapshot, ci.added_at
	          FROM cart_items ci
	          JOIN carts c ON ci.cart_id = c.id
	          WHERE c.user_id = $1
	          ORDER BY ci.added_at, ci.id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		var id uuid.UUID
		var snapshotJSON []byte
		if err := rows.Scan(&id, &item.Quantity, &snapshotJSON, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		if err := json.Unmarshal(snapshotJSON, &item.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal item snapshot: %w", err)
		}
		item.ID = id.String()
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Append ensures a cart row exists for the user, inserts one line-item row
// with the product snapshot embedded, and returns the refreshed contents.
func (s *PostgresStore) Append(ctx context.Context, userID string, snapshot domain.ProductSnapshot) ([]domain.LineItem, error) {
	cartID, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal item snapshot: %w", err)
	}

	query := `INSERT INTO cart_items (id, cart_id, product_id, quantity, snapshot, added_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		cartID,
		snapshot.ProductID,
		1,
		snapshotJSON,
		time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}

	return s.Read(ctx, userID)
}

// RemoveByID deletes the row with the given server identity. The delete is
// scoped by a join to the owning cart's user_id so a caller can only remove
// items within their own cart. Returns refreshed contents.
func (s *PostgresStore) RemoveByID(ctx context.Context, userID, itemID string) ([]domain.LineItem, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	query := `DELETE FROM cart_items ci
	          USING carts c
	          WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.id = $2`

	result, err := s.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	if affected == 0 {
		return nil, ErrItemNotFound
	}

	return s.Read(ctx, userID)
}

// Clear removes every item row from the user's cart. The cart row itself is
// kept; an empty cart reads the same either way.
func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	query := `DELETE FROM cart_items ci
	          USING carts c
	          WHERE ci.cart_id = c.id AND c.user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ensureCart creates the user's cart row if absent and returns its id. The
// insert races benignly with concurrent appends: ON CONFLICT makes the losing
// writer fall through to the select.
func (s *PostgresStore) ensureCart(ctx context.Context, userID string) (uuid.UUID, error) {
	insert := `INSERT INTO carts (id, user_id, created_at, updated_at)
	           VALUES ($1, $2, NOW(), NOW())
	           ON CONFLICT (user_id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, insert, uuid.New(), userID); err != nil {
		return uuid.Nil, fmt.Errorf("create cart: %w", err)
	}

	var cartID uuid.UUID
	query := `SELECT id FROM carts WHERE user_id = $1`
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&cartID); err != nil {
		return uuid.Nil, fmt.Errorf("lookup cart: %w", err)
	}

	return cartID, nil
}
