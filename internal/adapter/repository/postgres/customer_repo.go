package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

const customerColumns = `id, first_name, last_name, email, bsn, phone_number, registration_id, created_at`

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	pool DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(pool DB) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts a customer.
func (r *CustomerRepository) Create(ctx context.Context, tx usecase.Tx, c *domain.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(r.pool, tx).Exec(ctx, query,
		c.ID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.BSN,
		c.PhoneNumber,
		c.RegistrationID,
		c.CreatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	return scanCustomer(r.pool.QueryRow(ctx, query, id))
}

// Search lists customers whose names start with the query's prefixes.
func (r *CustomerRepository) Search(ctx context.Context, q domain.CustomerQuery) ([]*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE lower(first_name) LIKE $1 AND lower(last_name) LIKE $2
		ORDER BY lower(last_name), lower(first_name), id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query,
		prefixPattern(q.FirstName),
		prefixPattern(q.LastName),
		q.Limit,
		q.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	return customers, rows.Err()
}

func prefixPattern(s string) string {
	return likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func scanCustomer(row scanner) (*domain.Customer, error) {
	var c domain.Customer

	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.BSN,
		&c.PhoneNumber,
		&c.RegistrationID,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}
