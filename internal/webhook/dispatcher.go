package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"

	"github.com/bettyarega/Flash-CDC/pkg/logging"
)

// Envelope is the JSON body posted to a tenant's webhook, one per record.
type Envelope struct {
	ClientID int64                  `json:"client_id"`
	Topic    string                 `json:"topic"`
	SchemaID string                 `json:"schema_id"`
	RecordID string                 `json:"recordId"`
	Decoded  map[string]interface{} `json:"decoded"`
}

// Config tunes retry behavior. Zero values fall back to production defaults.
type Config struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Jitter         time.Duration
	AttemptTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      1 * time.Second,
		MaxDelay:       30 * time.Second,
		Jitter:         250 * time.Millisecond,
		AttemptTimeout: 15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	return c
}

// Dispatcher posts envelopes with bounded exponential-backoff retries and
// reports the final HTTP status back to the caller's commit decision.
type Dispatcher struct {
	cfg        Config
	httpClient *http.Client
	retry      retrypolicy.RetryPolicy[int]
	logger     logging.Logger
}

func NewDispatcher(cfg Config, logger logging.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	builder := retrypolicy.NewBuilder[int]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxAttempts - 1).
		HandleIf(func(status int, err error) bool {
			return err != nil || status < 200 || status >= 300
		})
	if cfg.Jitter > 0 {
		builder = builder.WithJitter(cfg.Jitter)
	}
	return &Dispatcher{
		cfg:        cfg,
		httpClient: &http.Client{},
		retry:      builder.Build(),
		logger:     logger,
	}
}

// Post delivers one envelope and returns the last HTTP status observed, or 0
// when every attempt failed before getting a response. Success is any 2xx.
func (d *Dispatcher) Post(ctx context.Context, url string, envelope Envelope) int {
	body, err := json.Marshal(envelope)
	if err != nil {
		d.logger.WithError(err).WithField("webhook_url", url).Error("Envelope not serializable")
		return 0
	}
	deliveryID := uuid.New().String()

	lastStatus := 0
	_, _ = failsafe.With(d.retry).WithContext(ctx).Get(func() (int, error) {
		status, err := d.attempt(ctx, url, body, deliveryID)
		if err != nil {
			d.logger.WithError(err).WithFields(logging.Fields{
				"webhook_url": url,
				"delivery_id": deliveryID,
				"record_id":   envelope.RecordID,
			}).Warn("Webhook attempt failed")
			return 0, err
		}
		lastStatus = status
		return status, nil
	})

	if lastStatus < 200 || lastStatus >= 300 {
		d.logger.WithFields(logging.Fields{
			"webhook_url": url,
			"delivery_id": deliveryID,
			"record_id":   envelope.RecordID,
			"status":      lastStatus,
		}).Error("Webhook delivery failed after retries")
	}
	return lastStatus
}

func (d *Dispatcher) attempt(ctx context.Context, url string, body []byte, deliveryID string) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", deliveryID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return resp.StatusCode, nil
}
