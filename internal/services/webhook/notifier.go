package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/config"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	"github.com/ivankudzin/tagbot/internal/metrics"
)

const signatureHeader = "X-Signature"

// Notifier posts reaction events to the external backend. Every request is
// signed with HMAC-SHA256 over the exact body bytes; the receiver verifies
// against the shared secret.
type Notifier struct {
	url        string
	secret     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewNotifier(cfg config.WebhookConfig, httpClient *http.Client, logger *zap.Logger) *Notifier {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Notifier{
		url:        cfg.URL,
		secret:     cfg.Secret,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Enabled reports whether a target URL is configured. An unset URL turns the
// notifier into a no-op rather than an error source.
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Send delivers one event. Failures are reported to the caller but a send is
// never retried here; the reaction itself already succeeded and the backend
// owns its own consistency.
func (n *Notifier) Send(ctx context.Context, event model.ReactionEvent) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal reaction event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, Sign(n.secret, body))

	resp, err := n.httpClient.Do(req)
	if err != nil {
		metrics.IncWebhookSend(err)
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("webhook responded %d", resp.StatusCode)
		metrics.IncWebhookSend(err)
		return err
	}

	metrics.IncWebhookSend(nil)
	return nil
}

// Notify is Send with logging instead of error propagation. The delivery
// path calls this after a reaction lands so a flaky backend cannot fail a
// reaction that already happened.
func (n *Notifier) Notify(ctx context.Context, event model.ReactionEvent) {
	if !n.Enabled() {
		return
	}
	if err := n.Send(ctx, event); err != nil {
		n.logger.Warn("webhook send failed",
			zap.String("tag", event.Tag),
			zap.String("chat_id", event.ChatID),
			zap.String("message_id", event.MessageID),
			zap.Error(err))
	}
}

// Sign computes the hex-encoded HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret using a
// constant-time comparison.
func Verify(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

// EventStatusDirect marks events for reactions applied without a
// moderation pass. Events only fire after the reaction landed, so the
// item's intake status would read as a lie on that path.
const EventStatusDirect = "direct"

// EventFromModerationItem shapes the wire payload for a moderated
// submission after its reaction has been applied.
func EventFromModerationItem(item model.ModerationItem, emoji string) model.ReactionEvent {
	return model.ReactionEvent{
		TGUserID:     strconv.FormatInt(item.UserID, 10),
		Username:     item.Username,
		DisplayName:  item.DisplayName,
		Tag:          item.Tag,
		CounterName:  item.CounterName,
		Emoji:        emoji,
		ChatID:       strconv.FormatInt(item.ChatID, 10),
		MessageID:    strconv.Itoa(item.MessageID),
		Text:         item.Text,
		Caption:      item.Caption,
		ThreadName:   item.ThreadName,
		HasPhoto:     item.Media.HasPhoto,
		HasVideo:     item.Media.HasVideo,
		MediaFileIDs: item.Media.FileIDs(),
		Status:       string(item.Status),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}
