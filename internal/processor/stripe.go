package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://api.stripe.com"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// StripeClient talks to the processor's form-encoded REST API.
type StripeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewStripeClient(cfg Config) *StripeClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &StripeClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (c *StripeClient) RetrieveAccount(ctx context.Context, accountID string) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(accountID), nil, "", &acct); err != nil {
		return nil, err
	}
	if acct.ID == "" {
		return nil, ErrInvalidResponse
	}
	return &acct, nil
}

func (c *StripeClient) CreateAccount(ctx context.Context, params AccountParams) (*Account, error) {
	values := url.Values{}
	values.Set("type", "express")
	values.Set("country", strings.ToUpper(params.Country))
	if params.Email != "" {
		values.Set("email", params.Email)
	}
	for _, capability := range params.Capabilities {
		values.Set("capabilities["+capability+"][requested]", "true")
	}
	setMetadata(values, params.Metadata)

	var acct Account
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", values, "", &acct); err != nil {
		return nil, err
	}
	if acct.ID == "" {
		return nil, ErrInvalidResponse
	}
	return &acct, nil
}

func (c *StripeClient) CreateAccountLink(ctx context.Context, params AccountLinkParams) (*AccountLink, error) {
	values := url.Values{}
	values.Set("account", params.AccountID)
	values.Set("refresh_url", params.RefreshURL)
	values.Set("return_url", params.ReturnURL)
	values.Set("type", "account_onboarding")

	var link AccountLink
	if err := c.do(ctx, http.MethodPost, "/v1/account_links", values, "", &link); err != nil {
		return nil, err
	}
	if link.URL == "" {
		return nil, ErrInvalidResponse
	}
	return &link, nil
}

func (c *StripeClient) CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*PaymentIntent, error) {
	values := paymentIntentValues(params)

	var intent PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", values, params.IdempotencyKey, &intent); err != nil {
		return nil, err
	}
	if intent.ID == "" {
		return nil, ErrInvalidResponse
	}
	return &intent, nil
}

func paymentIntentValues(params PaymentIntentParams) url.Values {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(params.Amount, 10))
	values.Set("currency", strings.ToLower(params.Currency))
	for i, method := range params.PaymentMethodTypes {
		values.Set(fmt.Sprintf("payment_method_types[%d]", i), method)
	}
	if params.Description != "" {
		values.Set("description", params.Description)
	}
	if params.OnBehalfOf != "" {
		values.Set("on_behalf_of", params.OnBehalfOf)
	}
	if params.TransferDestination != "" {
		values.Set("transfer_data[destination]", params.TransferDestination)
	}
	if params.ApplicationFeeAmount != nil {
		values.Set("application_fee_amount", strconv.FormatInt(*params.ApplicationFeeAmount, 10))
	}
	setMetadata(values, params.Metadata)
	return values
}

func (c *StripeClient) CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(params.Amount, 10))
	values.Set("currency", strings.ToLower(params.Currency))
	values.Set("destination", params.Destination)
	if params.SourceTransaction != "" {
		values.Set("source_transaction", params.SourceTransaction)
	}
	setMetadata(values, params.Metadata)

	var transfer Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", values, params.IdempotencyKey, &transfer); err != nil {
		return nil, err
	}
	if transfer.ID == "" {
		return nil, ErrInvalidResponse
	}
	return &transfer, nil
}

func setMetadata(values url.Values, metadata map[string]string) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values.Set("metadata["+k+"]", metadata[k])
	}
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func (c *StripeClient) do(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return newAPIError(resp.StatusCode, APIError{Message: "processor request failed"})
		}
		return newAPIError(resp.StatusCode, envelope.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
