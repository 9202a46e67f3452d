package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"order-lifecycle/internal/domain"

	"github.com/rs/zerolog"
)

// NotificationClient posts status changes to the notification service, which
// pushes them to the buyer.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *NotificationClient) NotifyStatusChanged(ctx context.Context, evt domain.OrderStatusChangedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier only writes the event to the log. Used when no gateway is
// configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With().Str("component", "log_notifier").Logger()}
}

func (n *LogNotifier) NotifyStatusChanged(_ context.Context, evt domain.OrderStatusChangedEvent) error {
	n.log.Info().
		Str("order_id", evt.OrderID).
		Str("buyer_id", evt.BuyerID).
		Str("status", string(evt.Status)).
		Msg("order status changed")
	return nil
}
