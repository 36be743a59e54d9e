package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHTTPStatusThreshold = 300
	webhookTimeout             = 5 * time.Second
	eventRefreshTokenReuse     = "refresh_token_reuse"
)

// WebhookService posts security events to an external receiver.
type WebhookService struct {
	client     *http.Client
	log        *zap.SugaredLogger
	webhookURL string
}

func NewWebhookService(log *zap.SugaredLogger, webhookURL string) *WebhookService {
	return &WebhookService{
		client:     &http.Client{Timeout: webhookTimeout},
		log:        log,
		webhookURL: webhookURL,
	}
}

type webhookPayload struct {
	Event string `json:"event"`
	ReuseEvent
}

// NotifyTokenReuse fires and forgets; the request context may already be
// gone by the time the POST is sent.
func (s *WebhookService) NotifyTokenReuse(ctx context.Context, event ReuseEvent) {
	if s.webhookURL == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)

	go func() {
		payload, err := json.Marshal(webhookPayload{Event: eventRefreshTokenReuse, ReuseEvent: event})
		if err != nil {
			s.log.Errorw("failed to marshal webhook payload", "error", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			s.log.Errorw("failed to create webhook request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Errorw("failed to send webhook", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= defaultHTTPStatusThreshold {
			s.log.Warnw("webhook returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}
