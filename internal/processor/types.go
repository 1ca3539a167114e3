package processor

type Requirements struct {
	CurrentlyDue   []string `json:"currently_due"`
	DisabledReason string   `json:"disabled_reason"`
}

type Account struct {
	ID               string       `json:"id"`
	Country          string       `json:"country"`
	Email            string       `json:"email"`
	ChargesEnabled   bool         `json:"charges_enabled"`
	PayoutsEnabled   bool         `json:"payouts_enabled"`
	DetailsSubmitted bool         `json:"details_submitted"`
	Requirements     Requirements `json:"requirements"`
}

type AccountParams struct {
	Country      string
	Email        string
	Capabilities []string
	Metadata     map[string]string
}

type AccountLink struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

type AccountLinkParams struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentIntentParams describes a charge. Exactly one routing mode is used:
// either TransferDestination with ApplicationFeeAmount, or OnBehalfOf alone.
type PaymentIntentParams struct {
	Amount               int64
	Currency             string
	PaymentMethodTypes   []string
	Description          string
	ApplicationFeeAmount *int64
	TransferDestination  string
	OnBehalfOf           string
	Metadata             map[string]string
	IdempotencyKey       string
}

type Transfer struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}

type TransferParams struct {
	Amount            int64
	Currency          string
	Destination       string
	SourceTransaction string
	Metadata          map[string]string
	IdempotencyKey    string
}
