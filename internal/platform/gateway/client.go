package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/fx"

	cfgpkg "github.com/arbops/billing/pkg/config"
)

type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusRefused  PaymentStatus = "refused"
)

// Payment is the provider's view of a payment resource.
type Payment struct {
	ID          string        `json:"id"`
	Status      PaymentStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

var ErrPaymentNotFound = errors.New("payment not found")

// Client talks to the payment gateway's REST API. It is consumed by the
// pending-payment poller; the webhook path never calls out to the gateway.
type Client interface {
	GetPaymentStatus(ctx context.Context, id string) (*Payment, error)
}

type Options struct {
	BaseURL    string
	APIToken   string
	Issuer     string
	HTTPClient *http.Client
}

type restClient struct {
	baseURL string
	token   string
	issuer  string
	http    *http.Client
}

func New(opts *Options) (Client, error) {
	if opts == nil {
		return nil, errors.New("opts is nil")
	}
	if opts.BaseURL == "" || opts.APIToken == "" {
		return nil, errors.New("gateway base URL and API token are required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &restClient{
		baseURL: opts.BaseURL,
		token:   opts.APIToken,
		issuer:  opts.Issuer,
		http:    hc,
	}, nil
}

func (c *restClient) GetPaymentStatus(ctx context.Context, id string) (*Payment, error) {
	bearer, err := c.mintToken(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to mint gateway token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("gateway returned status %d", res.StatusCode)
	}

	var p Payment
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	return &p, nil
}

// mintToken signs a short-lived HS256 bearer token from the configured API
// token, the scheme the gateway expects for server-to-server calls.
func (c *restClient) mintToken(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": c.issuer,
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(c.token))
}

func NewFromConfig(cfg *cfgpkg.Config) (Client, error) {
	return New(&Options{
		BaseURL:  cfg.Gateway.BaseURL,
		APIToken: cfg.Gateway.APIToken,
		Issuer:   cfg.Gateway.Issuer,
	})
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
