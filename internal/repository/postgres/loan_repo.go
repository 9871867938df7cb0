package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, client_id, principal, interest_rate_percent, total_payable, installment_count, frequency, start_date, end_date, status, renewed_by_loan_id, notes, created_at, updated_at`

// Create creates a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	return r.create(context.Background(), r.pool, loan)
}

// CreateTx creates a new loan within a transaction
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.create(context.Background(), pgxTx, loan)
}

func (r *LoanRepository) create(ctx context.Context, db DBTX, loan *domain.Loan) (*domain.Loan, error) {
	principal, err := decimalToPgNumeric(loan.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := decimalToPgNumeric(loan.InterestRatePercent)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(loan.TotalPayable)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(ctx, `
		INSERT INTO loans (client_id, principal, interest_rate_percent, total_payable, installment_count, frequency, start_date, end_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+loanColumns,
		loan.ClientID, principal, rate, total, loan.InstallmentCount,
		string(loan.Frequency), loan.StartDate, loan.EndDate, string(loan.Status), loan.Notes,
	)
	return scanLoan(row)
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(id int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// GetActiveByClient retrieves the client's single active loan
func (r *LoanRepository) GetActiveByClient(clientID int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1`, clientID)
	loan, err := scanLoan(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// GetAllByClient retrieves all loans of a client, newest first
func (r *LoanRepository) GetAllByClient(clientID int32) ([]*domain.Loan, error) {
	return r.queryLoans(context.Background(), r.pool, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

// GetFinishedByClient retrieves the client's finished loans
func (r *LoanRepository) GetFinishedByClient(clientID int32) ([]*domain.Loan, error) {
	return r.queryLoans(context.Background(), r.pool, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 AND status = 'finished' ORDER BY created_at`, clientID)
}

// GetFinishedByClientTx retrieves finished loans within a transaction
func (r *LoanRepository) GetFinishedByClientTx(tx interface{}, clientID int32) ([]*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.queryLoans(context.Background(), pgxTx, `SELECT `+loanColumns+` FROM loans WHERE client_id = $1 AND status = 'finished' ORDER BY created_at`, clientID)
}

// UpdateStatus sets a loan's status
func (r *LoanRepository) UpdateStatus(id int32, status domain.LoanStatus) error {
	return r.updateStatus(context.Background(), r.pool, id, status)
}

// UpdateStatusTx sets a loan's status within a transaction
func (r *LoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	return r.updateStatus(context.Background(), pgxTx, id, status)
}

func (r *LoanRepository) updateStatus(ctx context.Context, db DBTX, id int32, status domain.LoanStatus) error {
	tag, err := db.Exec(ctx, `UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// SetRenewedByTx records which loan replaced this one
func (r *LoanRepository) SetRenewedByTx(tx interface{}, id int32, newLoanID int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	tag, err := pgxTx.Exec(context.Background(), `UPDATE loans SET renewed_by_loan_id = $2, updated_at = now() WHERE id = $1`, id, newLoanID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateInstallmentCountTx updates the agreed installment count after a
// special installment is appended
func (r *LoanRepository) UpdateInstallmentCountTx(tx interface{}, id int32, count int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	tag, err := pgxTx.Exec(context.Background(), `UPDATE loans SET installment_count = $2, updated_at = now() WHERE id = $1`, id, count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func (r *LoanRepository) queryLoans(ctx context.Context, db DBTX, sql string, args ...interface{}) ([]*domain.Loan, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan      domain.Loan
		principal pgNumeric
		rate      pgNumeric
		total     pgNumeric
		frequency string
		status    string
	)
	err := row.Scan(
		&loan.ID, &loan.ClientID, &principal, &rate, &total, &loan.InstallmentCount,
		&frequency, &loan.StartDate, &loan.EndDate, &status, &loan.RenewedByLoanID,
		&loan.Notes, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	loan.Principal = principal.Decimal()
	loan.InterestRatePercent = rate.Decimal()
	loan.TotalPayable = total.Decimal()
	loan.Frequency = domain.LoanFrequency(frequency)
	loan.Status = domain.LoanStatus(status)
	return &loan, nil
}
