package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

const pgErrUniqueViolation = "23505"

var uniqueConstraints = map[string]error{
	"accounts_iban_key":                      domain.ErrDuplicateIBAN,
	"registrations_email_key":                domain.ErrDuplicateEmail,
	"customers_email_key":                    domain.ErrDuplicateEmail,
	"registrations_bsn_key":                  domain.ErrDuplicateBSN,
	"customers_bsn_key":                      domain.ErrDuplicateBSN,
	"transactions_performer_idempotency_key": domain.ErrDuplicateIdempotencyKey,
}

// mapError translates unique violations into domain errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		if mapped, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return mapped
		}
	}
	return err
}

func toDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(n.Int.String())
	if err != nil {
		return decimal.Zero, err
	}

	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d, nil
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
