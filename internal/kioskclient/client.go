// Package kioskclient speaks the device side of the controller API: it
// polls for commands, reports their outcome and registers cash payments.
package kioskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Command is one entry of a heartbeat response.
type Command struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	CommandType string          `json:"command_type"`
	Priority    int             `json:"priority"`
	CreatedAt   string          `json:"created_at"`
	Payload     json.RawMessage `json:"payload"`

	Amount        *decimal.Decimal `json:"amount"`
	CashFromAdmin *bool            `json:"cash_from_admin"`
	PaymentAmount *decimal.Decimal `json:"payment_amount"`
	PaymentType   string           `json:"payment_type"`
}

type HeartbeatResponse struct {
	Status       string    `json:"status"`
	ControllerID string    `json:"controller_id"`
	Commands     []Command `json:"commands"`
	ServerTime   string    `json:"server_time"`
}

type PaymentRequest struct {
	MacID       string          `json:"macId"`
	PaymentType string          `json:"paymentType"`
	Amount      decimal.Decimal `json:"amount"`
	RFIDCardID  string          `json:"rfidCardId,omitempty"`
	Description string          `json:"description,omitempty"`
}

type PaymentResponse struct {
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	KioskBalance  decimal.Decimal `json:"kioskBalance"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

type Client struct {
	backendURL string
	deviceID   string
	agentToken string
	httpClient *http.Client
	logger     *zap.Logger
}

type ClientConfig struct {
	BackendURL string
	// DeviceID is the kiosk id or MAC address used in the heartbeat path.
	DeviceID   string
	AgentToken string
	Timeout    time.Duration
	Logger     *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backendURL: cfg.BackendURL,
		deviceID:   cfg.DeviceID,
		agentToken: cfg.AgentToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Heartbeat(ctx context.Context) (*HeartbeatResponse, error) {
	path := "/api/v1/controller/heartbeat/" + url.PathEscape(c.deviceID)
	var resp HeartbeatResponse
	if err := c.post(ctx, path, struct{}{}, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("kiosk_heartbeat_ok", zap.String("controller_id", resp.ControllerID), zap.Int("commands", len(resp.Commands)))
	return &resp, nil
}

func (c *Client) ReportExecuted(ctx context.Context, commandID, result string) error {
	path := "/api/v1/controller/command/" + url.PathEscape(commandID) + "/executed"
	return c.post(ctx, path, map[string]string{"executionResult": result}, nil)
}

func (c *Client) ReportFailed(ctx context.Context, commandID, message string) error {
	path := "/api/v1/controller/command/" + url.PathEscape(commandID) + "/failed"
	return c.post(ctx, path, map[string]string{"errorMessage": message}, nil)
}

func (c *Client) RegisterPayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.post(ctx, "/api/v1/controller/payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	start := time.Now()
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.agentToken != "" {
		httpReq.Header.Set("X-Agent-Token", c.agentToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("kiosk_request_network_error", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("kiosk_request_done",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
