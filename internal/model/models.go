package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RolePayer Role = "payer"
	RolePayee Role = "payee"
	RoleAdmin Role = "admin"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type AccountStatus string

const (
	AccountStatusNone       AccountStatus = "none"
	AccountStatusIncomplete AccountStatus = "incomplete"
	AccountStatusPending    AccountStatus = "pending"
	AccountStatusActive     AccountStatus = "active"
)

// PayeeAccount links a payee to their account at the payment processor.
type PayeeAccount struct {
	UserID           string        `json:"user_id"`
	ExternalID       string        `json:"external_account_id"`
	Country          string        `json:"country"`
	Status           AccountStatus `json:"status"`
	ChargesEnabled   bool          `json:"charges_enabled"`
	PayoutsEnabled   bool          `json:"payouts_enabled"`
	DetailsSubmitted bool          `json:"details_submitted"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// DeriveAccountStatus maps the processor's onboarding flags onto AccountStatus.
func DeriveAccountStatus(detailsSubmitted, chargesEnabled, payoutsEnabled bool) AccountStatus {
	switch {
	case !detailsSubmitted:
		return AccountStatusIncomplete
	case !chargesEnabled || !payoutsEnabled:
		return AccountStatusPending
	default:
		return AccountStatusActive
	}
}

// Payment is one payer-to-payee payment. Amount and PlatformFee are in major
// units of Currency.
type Payment struct {
	ID                 string          `json:"id"`
	PayerID            string          `json:"payer_id"`
	PayeeID            string          `json:"payee_id"`
	ProjectID          *string         `json:"project_id,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Description        string          `json:"description"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentIntentID    string          `json:"payment_intent_id"`
	TransferID         *string         `json:"transfer_id,omitempty"`
	PlatformFee        decimal.Decimal `json:"platform_fee"`
	Status             PaymentStatus   `json:"status"`
	PayeeCountry       string          `json:"payee_country"`
	CrossBorderPayment bool            `json:"cross_border_payment"`
	ErrorMessage       *string         `json:"error_message,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProcessorEvent records a webhook delivery so redeliveries can be skipped.
type ProcessorEvent struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Payload         json.RawMessage `json:"payload"`
	ReceivedAt      time.Time       `json:"received_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}
