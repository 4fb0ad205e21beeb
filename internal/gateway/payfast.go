package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
)

// PayFastConfig holds credentials and endpoints for the hosted checkout API.
type PayFastConfig struct {
	BaseURL     string
	MerchantID  string
	SecuredKey  string
	Environment string // sandbox or production
	Timeout     time.Duration
}

/// PayFastGateway implements Gateway against the PayFast-style REST API:
// obtain an access token, create a checkout session, then poll the
// transaction by its tracker token.
type PayFastGateway struct {
	cfg    PayFastConfig
	client *http.Client
}

// NewPayFast creates a PayFast gateway adapter.
func NewPayFast(cfg PayFastConfig) *PayFastGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PayFastGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *PayFastGateway) Name() string { return "payfast" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type checkoutRequest struct {
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"basket_id"`
	Amount      string `json:"txnamt"`
	Currency    string `json:"currency_code"`
	Description string `json:"order_description"`
	ReturnURL   string `json:"success_url"`
	CancelURL   string `json:"failure_url"`
	PayerEmail  string `json:"customer_email,omitempty"`
}

type checkoutResponse struct {
	CheckoutURL  string `json:"checkout_url"`
	TrackerToken string `json:"transaction_id"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type transactionResponse struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"basket_id"`
	Status        string `json:"transaction_status"` // completed, pending, failed, cancelled
	Amount        string `json:"txnamt"`
	Currency      string `json:"currency_code"`
}

// CreateSession opens a hosted checkout session.
func (g *PayFastGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := checkoutRequest{
		MerchantID:  g.cfg.MerchantID,
		OrderID:     req.OrderID,
		Amount:      formatAmount(req.AmountCents),
		Currency:    req.Currency,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		PayerEmail:  req.PayerEmail,
	}

	var resp checkoutResponse
	if err := g.post(ctx, "/transaction/checkout", token, body, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != "" {
		return nil, domainErrors.NewDomainError(
			"gateway_rejected",
			fmt.Sprintf("checkout rejected (%s): %s", resp.ErrorCode, resp.ErrorMessage),
			domainErrors.ErrGatewayRejected,
		)
	}
	if resp.CheckoutURL == "" || resp.TrackerToken == "" {
		return nil, domainErrors.NewDomainError("gateway_invalid_response", "checkout response missing url or tracker", domainErrors.ErrGatewayUnavailable)
	}

	return &Session{
		CheckoutURL:  resp.CheckoutURL,
		TrackerToken: resp.TrackerToken,
		Environment:  g.cfg.Environment,
	}, nil
}

// VerifyTransaction fetches transaction state by tracker token.
func (g *PayFastGateway) VerifyTransaction(ctx context.Context, tracker string) (*VerifyResult, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp transactionResponse
	if err := g.get(ctx, "/transaction/"+tracker, token, &resp); err != nil {
		return nil, err
	}

	cents, err := parseAmount(resp.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}

	return &VerifyResult{
		TrackerToken: resp.TransactionID,
		OrderID:      resp.OrderID,
		Settled:      resp.Status == "completed",
		AmountCents:  cents,
		Currency:     resp.Currency,
		Status:       resp.Status,
	}, nil
}

// CancelSession voids an unsettled session.
func (g *PayFastGateway) CancelSession(ctx context.Context, tracker string) error {
	token, err := g.accessToken(ctx)
	if err != nil {
		return err
	}
	var resp struct {
		ErrorCode    string `json:"error_code,omitempty"`
		ErrorMessage string `json:"error_message,omitempty"`
	}
	if err := g.post(ctx, "/transaction/"+tracker+"/cancel", token, struct{}{}, &resp); err != nil {
		return err
	}
	if resp.ErrorCode != "" {
		return domainErrors.NewDomainError("gateway_rejected", resp.ErrorMessage, domainErrors.ErrGatewayRejected)
	}
	return nil
}

func (g *PayFastGateway) accessToken(ctx context.Context) (string, error) {
	body := map[string]string{
		"merchant_id": g.cfg.MerchantID,
		"secured_key": g.cfg.SecuredKey,
	}
	var resp tokenResponse
	if err := g.post(ctx, "/token", "", body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", domainErrors.NewDomainError("gateway_auth_failed", "empty access token", domainErrors.ErrGatewayUnavailable)
	}
	return resp.AccessToken, nil
}

func (g *PayFastGateway) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return g.do(req, out)
}

func (g *PayFastGateway) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return g.do(req, out)
}

func (g *PayFastGateway) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return domainErrors.ErrGatewayTimeout
		}
		return fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", domainErrors.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", domainErrors.ErrGatewayRejected, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// formatAmount renders cents as the decimal string the API expects.
func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func parseAmount(s string) (int64, error) {
	var whole, frac int64
	if _, err := fmt.Sscanf(s, "%d.%02d", &whole, &frac); err != nil {
		// Some endpoints return whole amounts without a decimal part.
		if _, err2 := fmt.Sscanf(s, "%d", &whole); err2 != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		return whole * 100, nil
	}
	return whole*100 + frac, nil
}
