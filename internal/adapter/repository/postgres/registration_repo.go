package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

const registrationColumns = `id, first_name, last_name, email, bsn, phone_number,
	registration_date, approved, customer_id`

// RegistrationRepository implements usecase.RegistrationRepository.
type RegistrationRepository struct {
	pool DB
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(pool DB) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Create inserts a registration. Email and BSN uniqueness is enforced by constraints.
func (r *RegistrationRepository) Create(ctx context.Context, reg *domain.PendingRegistration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.FirstName,
		reg.LastName,
		reg.Email,
		reg.BSN,
		reg.PhoneNumber,
		reg.RegistrationDate,
		reg.Approved,
		reg.CustomerID,
	)

	return mapError(err)
}

// GetByID retrieves a registration by ID.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*domain.PendingRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	return scanRegistration(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a registration with a FOR UPDATE lock.
func (r *RegistrationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.PendingRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 FOR UPDATE`

	return scanRegistration(conn(r.pool, tx).QueryRow(ctx, query, id))
}

// MarkApproved flags the registration and links the customer created from it.
func (r *RegistrationRepository) MarkApproved(ctx context.Context, tx usecase.Tx, id, customerID string) error {
	query := `UPDATE registrations SET approved = TRUE, customer_id = $2 WHERE id = $1`

	return r.exec(ctx, tx, query, id, customerID)
}

// Delete removes a registration.
func (r *RegistrationRepository) Delete(ctx context.Context, tx usecase.Tx, id string) error {
	return r.exec(ctx, tx, `DELETE FROM registrations WHERE id = $1`, id)
}

// ListPending returns unapproved registrations, oldest first.
func (r *RegistrationRepository) ListPending(ctx context.Context, limit, offset int) ([]*domain.PendingRegistration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE NOT approved
		ORDER BY registration_date, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.PendingRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

func (r *RegistrationRepository) exec(ctx context.Context, tx usecase.Tx, query string, args ...any) error {
	tag, err := conn(r.pool, tx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRegistrationNotFound
	}

	return nil
}

func scanRegistration(row scanner) (*domain.PendingRegistration, error) {
	var (
		reg        domain.PendingRegistration
		customerID pgtype.Text
	)

	err := row.Scan(
		&reg.ID,
		&reg.FirstName,
		&reg.LastName,
		&reg.Email,
		&reg.BSN,
		&reg.PhoneNumber,
		&reg.RegistrationDate,
		&reg.Approved,
		&customerID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		id := customerID.String
		reg.CustomerID = &id
	}

	return &reg, nil
}
