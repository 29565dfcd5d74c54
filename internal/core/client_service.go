package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type clientService struct {
	pool *pgxpool.Pool
}

// NewClientService constructs a ClientService backed by PostgreSQL.
func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

// CreateClient inserts a new client.
func (s *clientService) CreateClient(ctx context.Context, input ClientInput) (*Client, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c := &Client{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (name, address, tax_identification, client_type, tax_regime,
		                     is_resident, is_vat_registered)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, address, tax_identification, client_type, tax_regime,
		          is_resident, is_vat_registered, created_at`,
		input.Name, input.Address, input.TaxIdentification, input.Category, input.TaxRegime,
		input.IsResident, input.IsVATRegistered,
	).Scan(
		&c.ID, &c.Name, &c.Address, &c.TaxIdentification, &c.Category, &c.TaxRegime,
		&c.IsResident, &c.IsVATRegistered, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create client %q: %w", input.Name, err)
	}
	return c, nil
}

// GetClient returns a client by ID.
func (s *clientService) GetClient(ctx context.Context, clientID int) (*Client, error) {
	return getClient(ctx, s.pool, clientID)
}

// GetClients returns all clients ordered by name.
func (s *clientService) GetClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, address, tax_identification, client_type, tax_regime,
		       is_resident, is_vat_registered, created_at
		FROM clients
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Address, &c.TaxIdentification, &c.Category, &c.TaxRegime,
			&c.IsResident, &c.IsVATRegistered, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client that no purchase order references.
func (s *clientService) DeleteClient(ctx context.Context, clientID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", clientID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("delete client %d: %w", clientID, ErrClientInUse)
		}
		return fmt.Errorf("delete client %d: %w", clientID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", clientID, ErrNotFound)
	}
	return nil
}

// CreateProduct inserts a catalog product.
func (s *clientService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	rate := DefaultProductTaxRate
	if input.TaxRate != nil {
		rate = *input.TaxRate
	}

	var code *string
	if input.Code != "" {
		code = &input.Code
	}

	p := &Product{}
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, unit_price, tva_rate)
		VALUES ($1, $2, $3, $4)
		RETURNING id, COALESCE(code, ''), name, unit_price, tva_rate, created_at`,
		code, input.Name, input.UnitPrice, RoundRate(rate),
	).Scan(&p.ID, &p.Code, &p.Name, &p.UnitPrice, &p.TaxRate, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("create product %q: %w", input.Name, err)
	}
	return p, nil
}

// GetProduct returns a catalog product by ID.
func (s *clientService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	p := &Product{}
	if err := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(code, ''), name, unit_price, tva_rate, created_at
		FROM products
		WHERE id = $1`,
		productID,
	).Scan(&p.ID, &p.Code, &p.Name, &p.UnitPrice, &p.TaxRate, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	return p, nil
}

// GetProducts returns the catalog ordered by name.
func (s *clientService) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(code, ''), name, unit_price, tva_rate, created_at
		FROM products
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.UnitPrice, &p.TaxRate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
