package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mohammedsw45/blue-basks/logging"
)

// NotificationEvent is posted to the notifications endpoint when memberships
// change or an entity reaches a terminal status.
type NotificationEvent struct {
	EventType string `json:"eventType"`
	EntityID  string `json:"entityId"`
	Message   string `json:"message"`
}

// NotificationClient delivers events over HTTP behind a circuit breaker.
// Delivery failures are logged and swallowed: notifications sit outside the
// transactional core and must never roll back a committed transition.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewNotificationClient(baseURL string) *NotificationClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &NotificationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		breaker:    breaker,
	}
}

// Send posts the event. A client built with an empty base URL is a no-op so
// the backend runs without a notifications endpoint configured.
func (c *NotificationClient) Send(ctx context.Context, event NotificationEvent) {
	if c == nil || c.baseURL == "" {
		return
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		body, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notifications", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("notifications endpoint returned %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send %s notification for %s: %v", event.EventType, event.EntityID, err)
	}
}
