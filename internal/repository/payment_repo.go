package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anyulbade/annotation-payouts/internal/model"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id::text, payer_id::text, payee_id::text, project_id, amount, currency,
	description, payment_method, payment_intent_id, transfer_id, platform_fee, status,
	payee_country, cross_border_payment, error_message, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.PayerID, &p.PayeeID, &p.ProjectID, &p.Amount, &p.Currency,
		&p.Description, &p.PaymentMethod, &p.PaymentIntentID, &p.TransferID, &p.PlatformFee, &p.Status,
		&p.PayeeCountry, &p.CrossBorderPayment, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *PaymentRepository) Insert(ctx context.Context, p *model.Payment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payments (id, payer_id, payee_id, project_id, amount, currency, description,
			payment_method, payment_intent_id, platform_fee, status, payee_country, cross_border_payment)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		p.ID, p.PayerID, p.PayeeID, p.ProjectID, p.Amount, p.Currency, p.Description,
		p.PaymentMethod, p.PaymentIntentID, p.PlatformFee, p.Status, p.PayeeCountry, p.CrossBorderPayment,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return translate(err)
}

func (r *PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1`, intentID))
}

// ClaimPending moves a pending payment to processing and returns it. When the
// payment exists but is no longer pending, it returns (nil, false, nil) so
// concurrent or repeated webhook deliveries settle a payment once.
func (r *PaymentRepository) ClaimPending(ctx context.Context, intentID string) (*model.Payment, bool, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx,
		`UPDATE payments SET status = $2, updated_at = now()
		WHERE payment_intent_id = $1 AND status = $3
		RETURNING `+paymentColumns,
		intentID, model.PaymentStatusProcessing, model.PaymentStatusPending))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// TransitionUpdate carries the optional fields written alongside a status change.
type TransitionUpdate struct {
	TransferID   *string
	ErrorMessage *string
}

// Transition changes the status of a payment only if it is still in `from`.
func (r *PaymentRepository) Transition(ctx context.Context, id string, from, to model.PaymentStatus, upd TransitionUpdate) error {
	if !model.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, from, to)
	}
	if !isUUID(id) {
		return ErrNotFound
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET
			status = $3,
			transfer_id = COALESCE($4, transfer_id),
			error_message = COALESCE($5, error_message),
			updated_at = now()
		WHERE id = $1::uuid AND status = $2`,
		id, from, to, upd.TransferID, upd.ErrorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// RecordError stores the latest processor failure message on a payment that
// is still in status.
func (r *PaymentRepository) RecordError(ctx context.Context, id string, status model.PaymentStatus, message string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET error_message = $3, updated_at = now()
		WHERE id = $1::uuid AND status = $2`,
		id, status, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// PaymentFilter selects payments for one participant.
type PaymentFilter struct {
	UserID  string
	AsPayer bool
	Status  string
	Limit   int
	Offset  int
}

func (f PaymentFilter) userColumn() string {
	if f.AsPayer {
		return "payer_id"
	}
	return "payee_id"
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentFilter) ([]*model.Payment, error) {
	if !isUUID(f.UserID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE `+f.userColumn()+` = $1::uuid AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		f.UserID, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) Count(ctx context.Context, f PaymentFilter) (int, error) {
	if !isUUID(f.UserID) {
		return 0, nil
	}
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments
		WHERE `+f.userColumn()+` = $1::uuid AND ($2 = '' OR status = $2)`,
		f.UserID, f.Status).Scan(&total)
	return total, err
}
