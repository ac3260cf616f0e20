package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// a :memory: database lives per connection
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, price, seller_id
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.SellerID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	query := `
		SELECT id, name, price, seller_id
		FROM products
		WHERE id = $1
	`

	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&p.ID, &p.Name, &p.Price, &p.SellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

func (r *Repository) GetOwningSeller(ctx context.Context, productID string) (string, error) {
	var sellerID string
	err := r.db.QueryRowContext(ctx, `SELECT seller_id FROM products WHERE id = $1`, productID).Scan(&sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrProductNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query product owner: %w", err)
	}
	return sellerID, nil
}

func (r *Repository) ListProductIDsBySeller(ctx context.Context, sellerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM products WHERE seller_id = $1 ORDER BY id`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seller products: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
