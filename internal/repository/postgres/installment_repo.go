package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
)

// InstallmentRepository implements domain.InstallmentRepository using PostgreSQL
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

const installmentColumns = `id, loan_id, number, amount, amount_paid, due_date, status, paid_date, payment_method, cash_amount, transfer_amount, late_interest_charged, receipt_id, created_at, updated_at`

// CreateBatchTx inserts a loan's full schedule in one transaction
func (r *InstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, inst := range installments {
		created, err := r.create(ctx, pgxTx, inst)
		if err != nil {
			return err
		}
		*inst = *created
	}
	return nil
}

// CreateTx inserts a single installment within a transaction
func (r *InstallmentRepository) CreateTx(tx interface{}, installment *domain.Installment) (*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.create(context.Background(), pgxTx, installment)
}

func (r *InstallmentRepository) create(ctx context.Context, db DBTX, inst *domain.Installment) (*domain.Installment, error) {
	amount, err := decimalToPgNumeric(inst.Amount)
	if err != nil {
		return nil, err
	}
	paid, err := decimalToPgNumeric(inst.AmountPaid)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(ctx, `
		INSERT INTO installments (loan_id, number, amount, amount_paid, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+installmentColumns,
		inst.LoanID, inst.Number, amount, paid, inst.DueDate, string(inst.Status),
	)
	return scanInstallment(row)
}

// GetByID retrieves an installment by its ID
func (r *InstallmentRepository) GetByID(id int32) (*domain.Installment, error) {
	row := r.pool.QueryRow(context.Background(), `SELECT `+installmentColumns+` FROM installments WHERE id = $1`, id)
	inst, err := scanInstallment(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrInstallmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// GetByIDForUpdateTx locks the installment row for the duration of the
// transaction. NOWAIT turns a lock conflict into an immediate error instead
// of queueing behind the competing payment.
func (r *InstallmentRepository) GetByIDForUpdateTx(tx interface{}, id int32) (*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	row := pgxTx.QueryRow(context.Background(), `SELECT `+installmentColumns+` FROM installments WHERE id = $1 FOR UPDATE NOWAIT`, id)
	inst, err := scanInstallment(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrInstallmentNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return nil, domain.ErrConcurrentModification
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// GetByLoanID retrieves all installments of a loan ordered by number
func (r *InstallmentRepository) GetByLoanID(loanID int32) ([]*domain.Installment, error) {
	return r.queryInstallments(context.Background(), r.pool,
		`SELECT `+installmentColumns+` FROM installments WHERE loan_id = $1 ORDER BY number`, loanID)
}

// GetByLoanIDs retrieves installments for a set of loans
func (r *InstallmentRepository) GetByLoanIDs(loanIDs []int32) ([]*domain.Installment, error) {
	if len(loanIDs) == 0 {
		return nil, nil
	}
	return r.queryInstallments(context.Background(), r.pool,
		`SELECT `+installmentColumns+` FROM installments WHERE loan_id = ANY($1) ORDER BY loan_id, number`, loanIDs)
}

// GetByLoanIDsTx retrieves installments for a set of loans within a transaction
func (r *InstallmentRepository) GetByLoanIDsTx(tx interface{}, loanIDs []int32) ([]*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if len(loanIDs) == 0 {
		return nil, nil
	}
	return r.queryInstallments(context.Background(), pgxTx,
		`SELECT `+installmentColumns+` FROM installments WHERE loan_id = ANY($1) ORDER BY loan_id, number`, loanIDs)
}

// GetNextOpenTx returns the lowest-numbered open installment after the given
// number within the same loan
func (r *InstallmentRepository) GetNextOpenTx(tx interface{}, loanID int32, afterNumber int32) (*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	row := pgxTx.QueryRow(context.Background(), `
		SELECT `+installmentColumns+` FROM installments
		WHERE loan_id = $1 AND number > $2 AND status IN ('pending', 'partially_paid')
		ORDER BY number LIMIT 1`, loanID, afterNumber)
	inst, err := scanInstallment(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrInstallmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// UpdateTx persists payment state for an installment within a transaction
func (r *InstallmentRepository) UpdateTx(tx interface{}, inst *domain.Installment) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	amount, err := decimalToPgNumeric(inst.Amount)
	if err != nil {
		return err
	}
	paid, err := decimalToPgNumeric(inst.AmountPaid)
	if err != nil {
		return err
	}
	cash, err := decimalToPgNumeric(inst.CashAmount)
	if err != nil {
		return err
	}
	transfer, err := decimalToPgNumeric(inst.TransferAmount)
	if err != nil {
		return err
	}
	lateInterest, err := decimalToPgNumeric(inst.LateInterestCharged)
	if err != nil {
		return err
	}

	var method *string
	if inst.PaymentMethod != nil {
		m := string(*inst.PaymentMethod)
		method = &m
	}

	tag, err := pgxTx.Exec(context.Background(), `
		UPDATE installments SET
			amount = $2, amount_paid = $3, status = $4, paid_date = $5,
			payment_method = $6, cash_amount = $7, transfer_amount = $8,
			late_interest_charged = $9, receipt_id = $10, updated_at = now()
		WHERE id = $1`,
		inst.ID, amount, paid, string(inst.Status), inst.PaidDate,
		method, cash, transfer, lateInterest, inst.ReceiptID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstallmentNotFound
	}
	return nil
}

// MaxNumberTx returns the highest installment number of a loan
func (r *InstallmentRepository) MaxNumberTx(tx interface{}, loanID int32) (int32, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	var max int32
	err = pgxTx.QueryRow(context.Background(),
		`SELECT COALESCE(MAX(number), 0) FROM installments WHERE loan_id = $1`, loanID).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

// CountOpenTx counts installments that still owe money on a loan
func (r *InstallmentRepository) CountOpenTx(tx interface{}, loanID int32) (int64, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = pgxTx.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM installments WHERE loan_id = $1 AND status IN ('pending', 'partially_paid')`, loanID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *InstallmentRepository) queryInstallments(ctx context.Context, db DBTX, sql string, args ...interface{}) ([]*domain.Installment, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var (
		inst         domain.Installment
		amount       pgNumeric
		paid         pgNumeric
		cash         pgNumeric
		transfer     pgNumeric
		lateInterest pgNumeric
		status       string
		method       *string
	)
	err := row.Scan(
		&inst.ID, &inst.LoanID, &inst.Number, &amount, &paid, &inst.DueDate,
		&status, &inst.PaidDate, &method, &cash, &transfer, &lateInterest,
		&inst.ReceiptID, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inst.Amount = amount.Decimal()
	inst.AmountPaid = paid.Decimal()
	inst.CashAmount = cash.Decimal()
	inst.TransferAmount = transfer.Decimal()
	inst.LateInterestCharged = lateInterest.Decimal()
	inst.Status = domain.InstallmentStatus(status)
	if method != nil {
		m := domain.PaymentMethod(*method)
		inst.PaymentMethod = &m
	}
	return &inst, nil
}
