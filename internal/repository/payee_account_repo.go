package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anyulbade/annotation-payouts/internal/model"
)

type PayeeAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPayeeAccountRepository(pool *pgxpool.Pool) *PayeeAccountRepository {
	return &PayeeAccountRepository{pool: pool}
}

const payeeAccountColumns = `user_id::text, external_account_id, country, status,
	charges_enabled, payouts_enabled, details_submitted, created_at, updated_at`

func scanPayeeAccount(row interface{ Scan(...any) error }) (*model.PayeeAccount, error) {
	a := &model.PayeeAccount{}
	err := row.Scan(&a.UserID, &a.ExternalID, &a.Country, &a.Status,
		&a.ChargesEnabled, &a.PayoutsEnabled, &a.DetailsSubmitted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (r *PayeeAccountRepository) FindByUserID(ctx context.Context, userID string) (*model.PayeeAccount, error) {
	if !isUUID(userID) {
		return nil, ErrNotFound
	}
	return scanPayeeAccount(r.pool.QueryRow(ctx,
		`SELECT `+payeeAccountColumns+` FROM payee_accounts WHERE user_id = $1::uuid`, userID))
}

func (r *PayeeAccountRepository) FindByExternalID(ctx context.Context, externalID string) (*model.PayeeAccount, error) {
	return scanPayeeAccount(r.pool.QueryRow(ctx,
		`SELECT `+payeeAccountColumns+` FROM payee_accounts WHERE external_account_id = $1`, externalID))
}

// Save inserts the account or replaces the row for the same user. A payee
// that re-onboards after their processor account was deleted gets the new
// account id and country.
func (r *PayeeAccountRepository) Save(ctx context.Context, a *model.PayeeAccount) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payee_accounts (user_id, external_account_id, country, status,
			charges_enabled, payouts_enabled, details_submitted)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			external_account_id = EXCLUDED.external_account_id,
			country = EXCLUDED.country,
			status = EXCLUDED.status,
			charges_enabled = EXCLUDED.charges_enabled,
			payouts_enabled = EXCLUDED.payouts_enabled,
			details_submitted = EXCLUDED.details_submitted,
			updated_at = now()
		RETURNING created_at, updated_at`,
		a.UserID, a.ExternalID, a.Country, a.Status,
		a.ChargesEnabled, a.PayoutsEnabled, a.DetailsSubmitted,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return translate(err)
}
