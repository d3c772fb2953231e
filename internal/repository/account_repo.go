package repository

import (
	"database/sql"
	"fmt"
	"time"

	"metabridge/internal/database"
	"metabridge/internal/models"
)

// accountColumns is the scan order shared by all account queries
const accountColumns = `id, role, email, password_hash, name, specialization, license_number,
	hospital_name, first_name, last_name, phone, date_of_birth, emergency_contact,
	emergency_phone, two_factor_enabled, created_at, updated_at`

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account and returns it with its assigned ID
func (r *AccountRepository) Create(a *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (role, email, password_hash, name, specialization, license_number,
			hospital_name, first_name, last_name, phone, date_of_birth, emergency_contact,
			emergency_phone, two_factor_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		a.Role, a.Email, a.PasswordHash, a.Name, a.Specialization, a.LicenseNumber,
		a.HospitalName, a.FirstName, a.LastName, a.Phone, a.DateOfBirth,
		a.EmergencyContact, a.EmergencyPhone, a.TwoFactorEnabled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	created := *a
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = time.Now()
	return &created, nil
}

// GetByEmail retrieves an account by email address. Returns (nil, nil) when
// no account exists.
func (r *AccountRepository) GetByEmail(email string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE email = ?", accountColumns)
	return r.scanOne(r.db.QueryRow(query, email))
}

// GetByID retrieves an account by ID. Returns (nil, nil) when no account exists.
func (r *AccountRepository) GetByID(id int64) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE id = ?", accountColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// ListPatients retrieves all patient accounts ordered by first name
func (r *AccountRepository) ListPatients() ([]models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE role = ?
		ORDER BY first_name
	`, accountColumns)

	rows, err := r.db.Query(query, models.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	a, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// scanAccount populates an Account from any row-shaped Scan function
func scanAccount(scan func(dest ...interface{}) error) (*models.Account, error) {
	a := &models.Account{}
	err := scan(
		&a.ID, &a.Role, &a.Email, &a.PasswordHash, &a.Name, &a.Specialization,
		&a.LicenseNumber, &a.HospitalName, &a.FirstName, &a.LastName, &a.Phone,
		&a.DateOfBirth, &a.EmergencyContact, &a.EmergencyPhone, &a.TwoFactorEnabled,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
