package checkoutflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client implements Service against the bookings REST API.
type Client struct {
	baseURL string
	kind    string // registration or consultation
	http    *http.Client
}

// NewClient creates an API client for one booking kind.
func NewClient(baseURL, kind string) *Client {
	return &Client{
		baseURL: baseURL,
		kind:    kind,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type payRequest struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type payResponse struct {
	CheckoutURL  string `json:"checkout_url"`
	TrackerToken string `json:"tracker_token"`
}

type confirmRequest struct {
	TrackerToken string `json:"tracker_token"`
}

// Initiate calls POST /bookings/{kind}/{id}/pay.
func (c *Client) Initiate(ctx context.Context, bookingID, returnURL, cancelURL string) (*Session, error) {
	var resp payResponse
	url := fmt.Sprintf("%s/api/v1/bookings/%s/%s/pay", c.baseURL, c.kind, bookingID)
	if err := c.post(ctx, url, payRequest{ReturnURL: returnURL, CancelURL: cancelURL}, &resp); err != nil {
		return nil, err
	}
	return &Session{CheckoutURL: resp.CheckoutURL, TrackerToken: resp.TrackerToken}, nil
}

// Confirm calls POST /bookings/{kind}/{id}/confirm-payment.
func (c *Client) Confirm(ctx context.Context, bookingID, tracker string) error {
	url := fmt.Sprintf("%s/api/v1/bookings/%s/%s/confirm-payment", c.baseURL, c.kind, bookingID)
	return c.post(ctx, url, confirmRequest{TrackerToken: tracker}, &json.RawMessage{})
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call bookings api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("bookings api: %s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("bookings api: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
