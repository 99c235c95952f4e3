package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Horanet/payment-payzen/internal/models"
	"github.com/Horanet/payment-payzen/internal/payzen"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, reference, amount, currency, state,
	partner_id, partner_first_name, partner_last_name, partner_address,
	partner_zip, partner_city, partner_state, partner_country,
	partner_email, partner_phone,
	acquirer_reference, state_message, payzen_status, returned_data,
	date_validated, created_at, updated_at
`

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO payment_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.Reference,
		tx.Amount.StringFixed(2),
		tx.Currency,
		tx.State,
		tx.Partner.ID,
		tx.Partner.FirstName,
		tx.Partner.LastName,
		tx.Partner.Address,
		tx.Partner.Zip,
		tx.Partner.City,
		tx.Partner.State,
		tx.Partner.Country,
		tx.Partner.Email,
		tx.Partner.Phone,
		tx.AcquirerReference,
		tx.StateMessage,
		tx.PayzenStatus,
		tx.ReturnedData,
		nullTime(tx.DateValidated),
		tx.CreatedAt,
		tx.UpdatedAt,
	)

	return err
}

// GetByReference fetches the single transaction with the given reference.
// Zero or multiple matches are a LookupError: ambiguous references must never
// be silently resolved.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE reference = $1`

	rows, err := r.db.QueryContext(ctx, query, reference)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSingle(rows, reference)
}

// WithTransactionLock runs fn with an exclusive row lock on the transaction
// identified by reference, then persists the mutation when fn reports a
// change. The lock spans lookup, validation, the idempotency check and the
// state transition, so a callback and a concurrent poll cannot lose updates.
func (r *TransactionRepository) WithTransactionLock(ctx context.Context, reference string, fn func(tx *models.Transaction) (bool, error)) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE reference = $1 FOR UPDATE`

	rows, err := dbTx.QueryContext(ctx, query, reference)
	if err != nil {
		return err
	}
	record, err := scanSingle(rows, reference)
	rows.Close()
	if err != nil {
		return err
	}

	changed, err := fn(record)
	if err != nil {
		return err
	}
	if !changed {
		return dbTx.Commit()
	}

	record.UpdatedAt = time.Now()
	update := `
		UPDATE payment_transactions
		SET state = $1, acquirer_reference = $2, state_message = $3,
		    payzen_status = $4, returned_data = $5, date_validated = $6,
		    updated_at = $7
		WHERE id = $8
	`
	if _, err := dbTx.ExecContext(ctx, update,
		record.State,
		record.AcquirerReference,
		record.StateMessage,
		record.PayzenStatus,
		record.ReturnedData,
		nullTime(record.DateValidated),
		record.UpdatedAt,
		record.ID,
	); err != nil {
		return fmt.Errorf("update transaction %s: %w", record.ID, err)
	}

	return dbTx.Commit()
}

// FindCandidates returns draft or pending transactions without a gateway
// reference whose age falls inside [minAge, maxAge], oldest first. Too young
// and the callback may still be in flight; too old and the payment is
// presumed abandoned.
func (r *TransactionRepository) FindCandidates(ctx context.Context, minAge, maxAge time.Duration) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE state IN ('draft', 'pending')
		  AND (acquirer_reference IS NULL OR acquirer_reference = '')
		  AND created_at >= $1
		  AND created_at <= $2
		ORDER BY created_at ASC
	`

	now := time.Now()
	rows, err := r.db.QueryContext(ctx, query, now.Add(-maxAge), now.Add(-minAge))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *record)
	}

	return candidates, rows.Err()
}

func scanSingle(rows *sql.Rows, reference string) (*models.Transaction, error) {
	var matches []*models.Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, &payzen.LookupError{Reference: reference, Matches: len(matches)}
	}
	return matches[0], nil
}

func scanTransaction(rows *sql.Rows) (*models.Transaction, error) {
	var (
		record        models.Transaction
		amount        string
		acquirerRef   sql.NullString
		stateMessage  sql.NullString
		payzenStatus  sql.NullString
		returnedData  sql.NullString
		dateValidated sql.NullTime
	)

	err := rows.Scan(
		&record.ID,
		&record.Reference,
		&amount,
		&record.Currency,
		&record.State,
		&record.Partner.ID,
		&record.Partner.FirstName,
		&record.Partner.LastName,
		&record.Partner.Address,
		&record.Partner.Zip,
		&record.Partner.City,
		&record.Partner.State,
		&record.Partner.Country,
		&record.Partner.Email,
		&record.Partner.Phone,
		&acquirerRef,
		&stateMessage,
		&payzenStatus,
		&returnedData,
		&dateValidated,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount for %s: %w", record.ID, err)
	}
	record.AcquirerReference = acquirerRef.String
	record.StateMessage = stateMessage.String
	record.PayzenStatus = payzenStatus.String
	record.ReturnedData = returnedData.String
	if dateValidated.Valid {
		record.DateValidated = dateValidated.Time
	}

	return &record, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
