package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader = "Stripe-Signature"

	DefaultSignatureTolerance = 5 * time.Minute
)

const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventPaymentIntentCanceled  = "payment_intent.canceled"
	EventChargeRefunded         = "charge.refunded"
	EventAccountUpdated         = "account.updated"
)

type Event struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Created          int64     `json:"created"`
	ConnectedAccount string    `json:"account,omitempty"`
	Data             EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

type PaymentIntentObject struct {
	ID                 string            `json:"id"`
	Amount             int64             `json:"amount"`
	AmountReceived     int64             `json:"amount_received"`
	Currency           string            `json:"currency"`
	LatestCharge       string            `json:"latest_charge"`
	Metadata           map[string]string `json:"metadata"`
	CancellationReason string            `json:"cancellation_reason"`
	LastPaymentError   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"last_payment_error"`
}

// FailureMessage returns the processor's reason for a failed intent.
func (p *PaymentIntentObject) FailureMessage() string {
	if p.LastPaymentError != nil && p.LastPaymentError.Message != "" {
		return p.LastPaymentError.Message
	}
	return "payment failed"
}

type ChargeObject struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Refunded       bool   `json:"refunded"`
	Currency       string `json:"currency"`
}

// WebhookVerifier checks the signature header the processor attaches to
// every webhook delivery.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &WebhookVerifier{
		secret:    strings.TrimSpace(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) error {
	if v.secret == "" {
		return ErrNotConfigured
	}
	header := strings.TrimSpace(headers.Get(SignatureHeader))
	if header == "" {
		return ErrInvalidSignature
	}

	ts, signatures, ok := parseSignatureHeader(header)
	if !ok {
		return ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if age := v.now().Sub(time.Unix(unix, 0)); age > v.tolerance || age < -v.tolerance {
		return ErrInvalidSignature
	}

	expected := ComputeSignature(v.secret, ts, payload)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// ComputeSignature returns the hex HMAC-SHA256 of "timestamp.payload".
func ComputeSignature(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (string, []string, bool) {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "t":
			timestamp = strings.TrimSpace(value)
		case "v1":
			signatures = append(signatures, strings.TrimSpace(value))
		}
	}
	return timestamp, signatures, timestamp != "" && len(signatures) > 0
}

func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Type) == "" {
		return nil, ErrInvalidPayload
	}
	return &event, nil
}

func (e *Event) PaymentIntent() (*PaymentIntentObject, error) {
	var obj PaymentIntentObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil || obj.ID == "" {
		return nil, ErrInvalidPayload
	}
	return &obj, nil
}

func (e *Event) Charge() (*ChargeObject, error) {
	var obj ChargeObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil || obj.ID == "" {
		return nil, ErrInvalidPayload
	}
	return &obj, nil
}

func (e *Event) Account() (*Account, error) {
	var obj Account
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil || obj.ID == "" {
		return nil, ErrInvalidPayload
	}
	return &obj, nil
}
