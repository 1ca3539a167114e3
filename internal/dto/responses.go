package dto

import (
	"time"

	"github.com/anyulbade/annotation-payouts/internal/catalog"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/money"
	"github.com/anyulbade/annotation-payouts/internal/service"
)

type PaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentID       string `json:"payment_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          string `json:"amount"`
	PlatformFee     string `json:"platform_fee"`
	Currency        string `json:"currency"`
	CrossBorder     bool   `json:"cross_border"`
}

func NewPaymentIntentResponse(r *service.PaymentIntentResult) PaymentIntentResponse {
	return PaymentIntentResponse{
		ClientSecret:    r.ClientSecret,
		PaymentID:       r.PaymentID,
		PaymentIntentID: r.PaymentIntentID,
		Amount:          money.Format(r.Amount, r.Currency),
		PlatformFee:     money.Format(r.PlatformFee, r.Currency),
		Currency:        r.Currency,
		CrossBorder:     r.CrossBorder,
	}
}

type PaymentResponse struct {
	ID                 string    `json:"id"`
	PayerID            string    `json:"payer_id"`
	PayeeID            string    `json:"payee_id"`
	ProjectID          *string   `json:"project_id,omitempty"`
	Amount             string    `json:"amount"`
	Currency           string    `json:"currency"`
	Description        string    `json:"description"`
	PaymentMethod      string    `json:"payment_method"`
	PaymentIntentID    string    `json:"payment_intent_id"`
	TransferID         *string   `json:"transfer_id,omitempty"`
	PlatformFee        string    `json:"platform_fee"`
	Status             string    `json:"status"`
	PayeeCountry       string    `json:"payee_country"`
	CrossBorderPayment bool      `json:"cross_border_payment"`
	ErrorMessage       *string   `json:"error_message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewPaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		PayerID:            p.PayerID,
		PayeeID:            p.PayeeID,
		ProjectID:          p.ProjectID,
		Amount:             money.Format(p.Amount, p.Currency),
		Currency:           p.Currency,
		Description:        p.Description,
		PaymentMethod:      p.PaymentMethod,
		PaymentIntentID:    p.PaymentIntentID,
		TransferID:         p.TransferID,
		PlatformFee:        money.Format(p.PlatformFee, p.Currency),
		Status:             string(p.Status),
		PayeeCountry:       p.PayeeCountry,
		CrossBorderPayment: p.CrossBorderPayment,
		ErrorMessage:       p.ErrorMessage,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

type PaymentListResponse struct {
	Data       []PaymentResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

type OnboardResponse struct {
	AccountID     string    `json:"account_id"`
	Country       string    `json:"country"`
	Status        string    `json:"status"`
	OnboardingURL string    `json:"onboarding_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	Created       bool      `json:"created"`
}

type AccountStatusResponse struct {
	Status              string   `json:"status"`
	AccountID           string   `json:"account_id,omitempty"`
	Country             string   `json:"country,omitempty"`
	ChargesEnabled      bool     `json:"charges_enabled"`
	PayoutsEnabled      bool     `json:"payouts_enabled"`
	DetailsSubmitted    bool     `json:"details_submitted"`
	CurrentlyDue        []string `json:"currently_due,omitempty"`
	DisabledReason      string   `json:"disabled_reason,omitempty"`
	SupportedCurrencies []string `json:"supported_currencies,omitempty"`
}

type CountriesResponse struct {
	PlatformCountry string                  `json:"platform_country"`
	PlatformMethods []catalog.PaymentMethod `json:"platform_payment_methods"`
	Countries       []catalog.CountryInfo   `json:"countries"`
}

type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Status    string `json:"payment_status,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorListResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
