package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PreAuthDecision is the provider's answer to a pre-authorization request.
type PreAuthDecision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// PaymentClient talks to the card payment provider.
type PaymentClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type preAuthRequest struct {
	CardToken       string          `json:"card_token"`
	Amount          decimal.Decimal `json:"amount"`
	SimulateDecline bool            `json:"simulate_decline,omitempty"`
}

// NewPaymentClient returns HTTP client wrapper.
func NewPaymentClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PaymentClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaymentClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Preauthorize asks the provider to hold the amount on the card. The
// simulate-decline flag is forwarded verbatim for test traffic.
func (c *PaymentClient) Preauthorize(ctx context.Context, cardToken string, amount decimal.Decimal, simulateDecline bool) (PreAuthDecision, error) {
	body := preAuthRequest{
		CardToken:       cardToken,
		Amount:          amount,
		SimulateDecline: simulateDecline,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return PreAuthDecision{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/preauthorize", c.baseURL), bytes.NewReader(data))
	if err != nil {
		return PreAuthDecision{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("payment provider request failed", zap.Error(err))
		return PreAuthDecision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("payment provider returned non-success", zap.Int("status", resp.StatusCode))
		return PreAuthDecision{}, fmt.Errorf("payment provider status %d", resp.StatusCode)
	}

	var decision PreAuthDecision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return PreAuthDecision{}, err
	}
	return decision, nil
}
