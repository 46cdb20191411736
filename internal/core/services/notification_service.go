package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"
)

// NotificationService delivers templated mail through the relay webhook
// (MAIL_WEBHOOK_URL). When no relay is configured it stays silent, which
// keeps local development working without a mail account.
type NotificationService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	url := os.Getenv("MAIL_WEBHOOK_URL")
	return &NotificationService{
		webhookURL: url,
		enabled:    url != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification delivery is configured
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// Send posts a templated message to the mail relay. Failures are logged
// and swallowed; the caller's transition never depends on delivery.
func (s *NotificationService) Send(templateID, recipient string, payload map[string]interface{}) {
	if !s.enabled {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"template": templateID,
		"to":       recipient,
		"payload":  payload,
	})
	if err != nil {
		log.Printf("⚠️ Notify %s to %s: marshal failed: %v", templateID, recipient, err)
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️ Notify %s to %s: %v", templateID, recipient, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ Notify %s to %s: relay returned %d", templateID, recipient, resp.StatusCode)
	}
}
