package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
)

// ConfigRepository implements domain.ConfigRepository using PostgreSQL
type ConfigRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository creates a new ConfigRepository
func NewConfigRepository(pool *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

const creditConfigColumns = `id, category, max_loan_amount, debt_multiple_percent, allow_renewal_with_debt, min_days_before_renewal`

// GetCreditConfig retrieves the lending rules for a client category
func (r *ConfigRepository) GetCreditConfig(category domain.ClientCategory) (*domain.CreditConfiguration, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+creditConfigColumns+` FROM credit_configurations WHERE category = $1`, string(category))
	cfg, err := scanCreditConfig(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrCreditConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetAllCreditConfigs retrieves the lending rules for every category
func (r *ConfigRepository) GetAllCreditConfigs() ([]*domain.CreditConfiguration, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+creditConfigColumns+` FROM credit_configurations ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.CreditConfiguration
	for rows.Next() {
		cfg, err := scanCreditConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// GetMoraConfig retrieves the single late-interest configuration row
func (r *ConfigRepository) GetMoraConfig() (*domain.MoraConfiguration, error) {
	var (
		cfg     domain.MoraConfiguration
		rate    pgNumeric
		minimum pgNumeric
	)
	err := r.pool.QueryRow(context.Background(), `
		SELECT id, daily_rate_percent, grace_days, minimum_charge_amount, auto_apply
		FROM mora_configuration ORDER BY id LIMIT 1`).
		Scan(&cfg.ID, &rate, &cfg.GraceDays, &minimum, &cfg.AutoApply)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrMoraConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	cfg.DailyRatePercent = rate.Decimal()
	cfg.MinimumChargeAmount = minimum.Decimal()
	return &cfg, nil
}

func scanCreditConfig(row pgx.Row) (*domain.CreditConfiguration, error) {
	var (
		cfg      domain.CreditConfiguration
		category string
		maxLoan  pgNumeric
		multiple pgNumeric
	)
	err := row.Scan(&cfg.ID, &category, &maxLoan, &multiple, &cfg.AllowRenewalWithDebt, &cfg.MinDaysBeforeRenewal)
	if err != nil {
		return nil, err
	}
	cfg.Category = domain.ClientCategory(category)
	cfg.MaxLoanAmount = maxLoan.Decimal()
	cfg.DebtMultiplePercent = multiple.Decimal()
	return &cfg, nil
}
