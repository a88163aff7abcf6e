package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"silverSignalBot/internal/ports"
)

// Client sends text messages through the Meta Graph API (WhatsApp Cloud).
type Client struct {
	httpClient    *http.Client
	accessToken   string
	phoneNumberID string
	apiVersion    string
	maxRetries    int
	logger        ports.Logger
}

// Config holds credentials and settings for the WhatsApp client.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string        // e.g. "v18.0"
	Timeout       time.Duration // per-request timeout, defaults to 10s
	MaxRetries    int           // retry attempts after the first failure
	Logger        ports.Logger
}

// New validates the configuration and creates a WhatsApp client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for whatsapp client")
	}
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("%w: whatsapp access token and phone number id are required", ports.ErrConfigurationError)
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "v18.0"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		apiVersion:    apiVersion,
		maxRetries:    cfg.MaxRetries,
		logger:        cfg.Logger,
	}, nil
}

// textMessage is the Graph API payload for an individual text message.
type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// SendText delivers a message, retrying with exponential backoff. Failures
// are reported as ErrDeliveryFailed; the caller's state is already committed
// and must not be rolled back.
func (c *Client) SendText(ctx context.Context, recipient, body string) error {
	if recipient == "" {
		return fmt.Errorf("%w: empty recipient", ports.ErrDeliveryFailed)
	}

	deliveryID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.post(ctx, recipient, body); err != nil {
			lastErr = err
			c.logger.Warn(ctx, "whatsapp send failed", map[string]interface{}{
				"delivery_id": deliveryID,
				"recipient":   recipient,
				"attempt":     attempt + 1,
				"error":       err.Error(),
			})
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ports.ErrDeliveryFailed, ctx.Err())
			case <-time.After(backoff):
				continue
			}
		}
		c.logger.Debug(ctx, "whatsapp message delivered", map[string]interface{}{
			"delivery_id": deliveryID,
			"recipient":   recipient,
		})
		return nil
	}
	return fmt.Errorf("%w: %v", ports.ErrDeliveryFailed, lastErr)
}

func (c *Client) post(ctx context.Context, recipient, body string) error {
	msg := textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "text",
	}
	msg.Text.Body = FormatForWhatsApp(body)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	u := fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("graph API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
