package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
)

// BusinessTypeRepository implements domain.BusinessTypeRepository using PostgreSQL
type BusinessTypeRepository struct {
	pool *pgxpool.Pool
}

// NewBusinessTypeRepository creates a new BusinessTypeRepository
func NewBusinessTypeRepository(pool *pgxpool.Pool) *BusinessTypeRepository {
	return &BusinessTypeRepository{pool: pool}
}

const businessTypeColumns = `id, name, suggested_limit, sort_order, active, created_at`

// GetByID retrieves a business type by its ID
func (r *BusinessTypeRepository) GetByID(id int32) (*domain.BusinessType, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+businessTypeColumns+` FROM business_types WHERE id = $1`, id)
	bt, err := scanBusinessType(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrBusinessTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return bt, nil
}

// GetAllActive retrieves active business types in display order
func (r *BusinessTypeRepository) GetAllActive() ([]*domain.BusinessType, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+businessTypeColumns+` FROM business_types WHERE active ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*domain.BusinessType
	for rows.Next() {
		bt, err := scanBusinessType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, bt)
	}
	return types, rows.Err()
}

func scanBusinessType(row pgx.Row) (*domain.BusinessType, error) {
	var (
		bt    domain.BusinessType
		limit pgNumeric
	)
	err := row.Scan(&bt.ID, &bt.Name, &limit, &bt.SortOrder, &bt.Active, &bt.CreatedAt)
	if err != nil {
		return nil, err
	}
	bt.SuggestedLimit = limit.Decimal()
	return &bt, nil
}
