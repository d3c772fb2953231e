package repository

import (
	"database/sql"
	"fmt"
	"time"

	"metabridge/internal/database"
	"metabridge/internal/models"
)

// OTPRepository handles database operations for one-time login codes
type OTPRepository struct {
	db *database.DB
}

// NewOTPRepository creates a new one-time code repository
func NewOTPRepository(db *database.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Issue supersedes any unconsumed code for the account and inserts a new one,
// all within a single transaction. The at-most-one-active-code invariant holds
// because the supersede and the insert commit together.
func (r *OTPRepository) Issue(accountID int64, code string, expiresAt time.Time) (*models.OneTimeCode, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	supersede := `
		UPDATE one_time_codes
		SET consumed = ?
		WHERE account_id = ? AND consumed = ?
	`
	if _, err := tx.Exec(supersede, true, accountID, false); err != nil {
		return nil, fmt.Errorf("failed to supersede prior codes: %w", err)
	}

	now := time.Now()
	insert := `
		INSERT INTO one_time_codes (account_id, code, attempts, consumed, created_at, expires_at)
		VALUES (?, ?, 0, ?, ?, ?)
	`
	id, err := tx.ExecReturningID(insert, accountID, code, false, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit code issuance: %w", err)
	}

	return &models.OneTimeCode{
		ID:        id,
		AccountID: accountID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// GetLatestUnconsumed retrieves the account's most recent unconsumed code,
// expired or not. Returns (nil, nil) when none exists; the caller decides
// how expiry is reported.
func (r *OTPRepository) GetLatestUnconsumed(accountID int64) (*models.OneTimeCode, error) {
	query := `
		SELECT id, account_id, code, attempts, consumed, created_at, expires_at
		FROM one_time_codes
		WHERE account_id = ? AND consumed = ?
		ORDER BY id DESC
		LIMIT 1
	`
	c := &models.OneTimeCode{}
	err := r.db.QueryRow(query, accountID, false).Scan(
		&c.ID, &c.AccountID, &c.Code, &c.Attempts, &c.Consumed, &c.CreatedAt, &c.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	return c, nil
}

// Consume atomically marks a code consumed if it is still unconsumed and
// unexpired. Returns false when the code was already consumed, superseded,
// or expired — the test-and-set that stops two concurrent verifications
// both succeeding.
func (r *OTPRepository) Consume(codeID int64, now time.Time) (bool, error) {
	query := `
		UPDATE one_time_codes
		SET consumed = ?
		WHERE id = ? AND consumed = ? AND expires_at > ?
	`
	result, err := r.db.Exec(query, true, codeID, false, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read consume result: %w", err)
	}
	return rows == 1, nil
}

// RecordFailedAttempt increments the attempt counter for a code
func (r *OTPRepository) RecordFailedAttempt(codeID int64) error {
	query := "UPDATE one_time_codes SET attempts = attempts + 1 WHERE id = ?"
	if _, err := r.db.Exec(query, codeID); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Invalidate marks a code consumed unconditionally (attempt limit reached)
func (r *OTPRepository) Invalidate(codeID int64) error {
	query := "UPDATE one_time_codes SET consumed = ? WHERE id = ?"
	if _, err := r.db.Exec(query, true, codeID); err != nil {
		return fmt.Errorf("failed to invalidate code: %w", err)
	}
	return nil
}

// DeleteExpiredBefore removes codes that expired before the cutoff.
// Housekeeping only — expiry is always checked at verification time.
func (r *OTPRepository) DeleteExpiredBefore(cutoff time.Time) error {
	query := "DELETE FROM one_time_codes WHERE expires_at < ?"
	if _, err := r.db.Exec(query, cutoff); err != nil {
		return fmt.Errorf("failed to delete expired codes: %w", err)
	}
	return nil
}
