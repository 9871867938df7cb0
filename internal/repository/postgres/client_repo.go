package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
)

// ClientRepository implements domain.ClientRepository using PostgreSQL
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = `id, first_name, last_name, phone, address, category, status, individual_limit, business_type_id, notes, created_at, updated_at`

// Create creates a new client
func (r *ClientRepository) Create(client *domain.Client) (*domain.Client, error) {
	ctx := context.Background()

	limit, err := decimalToPgNumeric(client.IndividualLimit)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (first_name, last_name, phone, address, category, status, individual_limit, business_type_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+clientColumns,
		client.FirstName, client.LastName, client.Phone, client.Address,
		string(client.Category), string(client.Status), limit, client.BusinessTypeID, client.Notes,
	)
	return scanClient(row)
}

// GetByID retrieves a client by its ID
func (r *ClientRepository) GetByID(id int32) (*domain.Client, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GetAll retrieves all clients ordered by name
func (r *ClientRepository) GetAll() ([]*domain.Client, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// Update updates a client's editable fields
func (r *ClientRepository) Update(client *domain.Client) (*domain.Client, error) {
	ctx := context.Background()

	limit, err := decimalToPgNumeric(client.IndividualLimit)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE clients
		SET first_name = $2, last_name = $3, phone = $4, address = $5, status = $6,
		    individual_limit = $7, business_type_id = $8, notes = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns,
		client.ID, client.FirstName, client.LastName, client.Phone, client.Address,
		string(client.Status), limit, client.BusinessTypeID, client.Notes,
	)
	updated, err := scanClient(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateCategory sets a client's risk category
func (r *ClientRepository) UpdateCategory(id int32, category domain.ClientCategory) error {
	return r.updateCategory(context.Background(), r.pool, id, category)
}

// UpdateCategoryTx sets a client's risk category within a transaction
func (r *ClientRepository) UpdateCategoryTx(tx interface{}, id int32, category domain.ClientCategory) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	return r.updateCategory(context.Background(), pgxTx, id, category)
}

func (r *ClientRepository) updateCategory(ctx context.Context, db DBTX, id int32, category domain.ClientCategory) error {
	tag, err := db.Exec(ctx, `UPDATE clients SET category = $2, updated_at = now() WHERE id = $1`, id, string(category))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// Delete removes a client. Fails at the database level when loans reference it.
func (r *ClientRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// CountLoans returns how many loans a client owns
func (r *ClientRepository) CountLoans(id int32) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE client_id = $1`, id).Scan(&count)
	return count, err
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var (
		client   domain.Client
		category string
		status   string
		limit    pgNumeric
	)
	err := row.Scan(
		&client.ID, &client.FirstName, &client.LastName, &client.Phone, &client.Address,
		&category, &status, &limit, &client.BusinessTypeID, &client.Notes,
		&client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	client.Category = domain.ClientCategory(category)
	client.Status = domain.ClientStatus(status)
	client.IndividualLimit = limit.Decimal()
	return &client, nil
}
