// Package webhook delivers project events to subscribed outbound webhooks.
// Delivery is fire-and-forget: no retries, and failures never reach the
// caller.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"agora/internal/models"
)

const (
	EventNewPost      = "new_post"
	EventNewComment   = "new_comment"
	EventStatusChange = "status_change"
	EventMention      = "mention"
)

// Events lists every recognised event name.
var Events = []string{EventNewPost, EventNewComment, EventStatusChange, EventMention}

const (
	DefaultTimeout  = 5 * time.Second
	SignatureHeader = "X-Agora-Signature"
)

// Source returns the active webhooks of a project.
type Source interface {
	ActiveWebhooks(ctx context.Context, projectID string) ([]models.Webhook, error)
}

// Envelope is the JSON body posted to every webhook.
type Envelope struct {
	Event     string `json:"event"`
	ProjectID string `json:"project_id"`
	Payload   any    `json:"payload"`
}

type Dispatcher struct {
	source  Source
	client  *http.Client
	timeout time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(source Source, timeout time.Duration, logger *log.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		source:  source,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

func IsEvent(name string) bool {
	for _, e := range Events {
		if e == name {
			return true
		}
	}
	return false
}

// Emit returns immediately; lookup and delivery run in the background.
func (d *Dispatcher) Emit(projectID, event string, payload any) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliverAll(projectID, event, payload)
	}()
}

func (d *Dispatcher) deliverAll(projectID, event string, payload any) {
	lookupCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
	items, err := d.source.ActiveWebhooks(lookupCtx, projectID)
	cancel()
	if err != nil {
		d.logger.Printf("webhook: list hooks for project %s: %v", projectID, err)
		return
	}
	body, err := json.Marshal(Envelope{Event: event, ProjectID: projectID, Payload: payload})
	if err != nil {
		d.logger.Printf("webhook: encode %s: %v", event, err)
		return
	}
	for _, wh := range items {
		if !wh.Active || !eventAllowed(wh.Events, event) {
			continue
		}
		d.deliver(wh, body)
	}
}

func (d *Dispatcher) deliver(wh models.Webhook, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		d.logger.Printf("webhook: %s: build request: %v", wh.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(wh.Secret) != "" {
		req.Header.Set(SignatureHeader, Sign(wh.Secret, body))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Printf("webhook: %s: deliver: %v", wh.ID, err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Printf("webhook: %s: status %d", wh.ID, resp.StatusCode)
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Close waits for in-flight deliveries or until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func eventAllowed(events []string, event string) bool {
	for _, e := range events {
		if e == "*" || strings.EqualFold(strings.TrimSpace(e), event) {
			return true
		}
	}
	return false
}
