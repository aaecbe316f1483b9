package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CreatePaymentInput is what the orchestration hands the gateway: the priced
// cart plus the buyer identity Wompi shows on the hosted checkout.
type CreatePaymentInput struct {
	Reference     string
	AmountCents   int64
	Currency      string
	BuyerEmail    string
	BuyerFullName string
	BuyerPhone    string
	Items         []PaymentItem
}

type PaymentItem struct {
	Name      string
	Quantity  int64
	UnitPrice float64
}

type CreatePaymentResult struct {
	TransactionID string
	PaymentURL    string
	Reference     string
	PublicKey     string
	Signature     string
	AmountCents   int64
	Currency      string
}

// Client talks to the Wompi REST API. Payment sessions are payment links:
// the link id doubles as the transaction identifier until the first event
// callback carries the final transaction.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	publicKey       string
	privateKey      string
	integritySecret string
	eventsSecret    string
	redirectURL     string
}

func NewClient(baseURL, publicKey, privateKey, integritySecret, eventsSecret, redirectURL string) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		baseURL:         baseURL,
		publicKey:       publicKey,
		privateKey:      privateKey,
		integritySecret: integritySecret,
		eventsSecret:    eventsSecret,
		redirectURL:     redirectURL,
	}
}

type paymentLinkRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	SingleUse        bool   `json:"single_use"`
	CollectShipping  bool   `json:"collect_shipping"`
	Currency         string `json:"currency"`
	AmountInCents    int64  `json:"amount_in_cents"`
	Reference        string `json:"reference"`
	RedirectURL      string `json:"redirect_url"`
	CustomerEmail    string `json:"customer_email,omitempty"`
	ExpiresInMinutes int    `json:"expires_in_minutes,omitempty"`
}

type paymentLinkResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func (c *Client) CreatePayment(ctx context.Context, in CreatePaymentInput) (*CreatePaymentResult, error) {
	body := paymentLinkRequest{
		Name:            fmt.Sprintf("Order %s", in.Reference),
		Description:     fmt.Sprintf("Storefront order for %s", in.BuyerFullName),
		SingleUse:       true,
		CollectShipping: false,
		Currency:        in.Currency,
		AmountInCents:   in.AmountCents,
		Reference:       in.Reference,
		RedirectURL:     c.redirectURL,
		CustomerEmail:   in.BuyerEmail,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_links", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.privateKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wompi create payment link: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var decoded paymentLinkResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("wompi response decode: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wompi create payment link: status %d type=%s reason=%s",
			resp.StatusCode, decoded.Error.Type, decoded.Error.Reason)
	}
	if decoded.Data.ID == "" {
		return nil, fmt.Errorf("wompi create payment link: empty link id")
	}

	return &CreatePaymentResult{
		TransactionID: decoded.Data.ID,
		PaymentURL:    fmt.Sprintf("https://checkout.wompi.co/l/%s", decoded.Data.ID),
		Reference:     in.Reference,
		PublicKey:     c.publicKey,
		Signature:     c.IntegritySignature(in.Reference, in.AmountCents, in.Currency),
		AmountCents:   in.AmountCents,
		Currency:      in.Currency,
	}, nil
}

// IntegritySignature is Wompi's checkout integrity hash:
// sha256(reference + amount_in_cents + currency + integrity secret).
func (c *Client) IntegritySignature(reference string, amountCents int64, currency string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d%s%s", reference, amountCents, currency, c.integritySecret)))
	return hex.EncodeToString(sum[:])
}

// VerifyEventChecksum validates a webhook event signature: sha256 over the
// concatenated signed property values, the event timestamp and the events
// secret.
func (c *Client) VerifyEventChecksum(properties []string, timestamp int64, checksum string) bool {
	var buf bytes.Buffer
	for _, p := range properties {
		buf.WriteString(p)
	}
	fmt.Fprintf(&buf, "%d", timestamp)
	buf.WriteString(c.eventsSecret)
	sum := sha256.Sum256(buf.Bytes())
	// Wompi sends the checksum uppercased.
	return strings.EqualFold(hex.EncodeToString(sum[:]), checksum)
}
