package dto

import "github.com/shopspring/decimal"

type CreatePaymentIntentRequest struct {
	PayeeID       string          `json:"payee_id" binding:"required"`
	ProjectID     *string         `json:"project_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"required,len=3"`
	Description   string          `json:"description" binding:"max=500"`
	PaymentMethod string          `json:"payment_method"`
}

type OnboardRequest struct {
	Country    string `json:"country" binding:"required,len=2"`
	RefreshURL string `json:"refresh_url" binding:"required,url"`
	ReturnURL  string `json:"return_url" binding:"required,url"`
}
