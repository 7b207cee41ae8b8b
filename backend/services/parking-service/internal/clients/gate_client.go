package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// GateClient asks the gate-server to open the barrier for a lot.
type GateClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type openGateRequest struct {
	LotID        int64  `json:"lot_id"`
	LicensePlate string `json:"license_plate"`
}

// NewGateClient returns HTTP client wrapper.
func NewGateClient(baseURL string, timeout time.Duration, logger *zap.Logger) *GateClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GateClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// OpenGate requests a physical gate open. False means the gate-server answered
// but the gate did not confirm; an error means the request itself failed.
func (c *GateClient) OpenGate(ctx context.Context, lotID int64, plate string) (bool, error) {
	data, err := json.Marshal(openGateRequest{LotID: lotID, LicensePlate: plate})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/internal/gates/open", c.baseURL), bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("gate-server request failed", zap.Int64("lot_id", lotID), zap.Error(err))
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("gate-server refused open command",
			zap.Int64("lot_id", lotID),
			zap.Int("status", resp.StatusCode))
		return false, nil
	}
	return true, nil
}
