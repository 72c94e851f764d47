package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/config"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	"github.com/ivankudzin/tagbot/internal/infra/telegram"
	"github.com/ivankudzin/tagbot/internal/metrics"
	"github.com/ivankudzin/tagbot/internal/services/webhook"
)

// Reactor applies emoji reactions to Telegram messages.
type Reactor interface {
	SetReaction(ctx context.Context, chatID int64, messageID int, emojis []string) error
}

// Queue is the durable retry queue for reactions that failed synchronously.
type Queue interface {
	Enqueue(ctx context.Context, entry model.ReactionQueueEntry) (int64, error)
	ListOldest(ctx context.Context, limit int) ([]model.ReactionQueueEntry, error)
	Remove(ctx context.Context, id int64) error
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	Count(ctx context.Context) (int, error)
}

// ModerationLookup resolves queue entries back to their moderation items so
// the drain path can rebuild logs and webhook payloads.
type ModerationLookup interface {
	Get(ctx context.Context, id string) (model.ModerationItem, error)
}

// Notifier receives the signed event after a reaction has been applied.
type Notifier interface {
	Notify(ctx context.Context, event model.ReactionEvent)
}

// ActivityLog records delivered reactions in the audit trail.
type ActivityLog interface {
	Append(ctx context.Context, entry model.LogEntry) error
}

// Result reports what a delivery attempt actually did.
type Result struct {
	Delivered bool
	// Emoji is the reaction that landed, which differs from the requested
	// one when the fallback was used.
	Emoji  string
	Queued bool
}

// Service pushes reactions to Telegram under a bounded concurrency cap and
// owns the durable retry queue for the ones that fail.
type Service struct {
	reactor    Reactor
	queue      Queue
	moderation ModerationLookup
	notifier   Notifier
	activity   ActivityLog
	logger     *zap.Logger

	sem           chan struct{}
	callTimeout   time.Duration
	fallbackEmoji string
	drainBatch    int
	maxAttempts   int
}

func NewService(
	reactor Reactor,
	queue Queue,
	moderation ModerationLookup,
	notifier Notifier,
	activity ActivityLog,
	cfg config.DeliveryConfig,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	callTimeout := cfg.Timeout
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	fallback := cfg.FallbackEmoji
	if fallback == "" {
		fallback = "❤️"
	}
	drainBatch := cfg.DrainBatch
	if drainBatch <= 0 {
		drainBatch = 5
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Service{
		reactor:       reactor,
		queue:         queue,
		moderation:    moderation,
		notifier:      notifier,
		activity:      activity,
		logger:        logger,
		sem:           make(chan struct{}, maxConcurrent),
		callTimeout:   callTimeout,
		fallbackEmoji: fallback,
		drainBatch:    drainBatch,
		maxAttempts:   maxAttempts,
	}
}

// apply performs one reaction attempt under the concurrency cap and the call
// timeout. A reaction_invalid rejection triggers exactly one retry with the
// fallback emoji; the emoji that actually landed is returned.
func (s *Service) apply(ctx context.Context, chatID int64, messageID int, emoji string) (string, error) {
	if s.reactor == nil {
		return "", fmt.Errorf("reactor is not configured")
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-s.sem }()

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	err := s.reactor.SetReaction(callCtx, chatID, messageID, []string{emoji})
	if err == nil {
		return emoji, nil
	}

	if errors.Is(err, telegram.ErrReactionInvalid) && emoji != s.fallbackEmoji {
		s.logger.Warn("reaction not allowed, trying fallback",
			zap.String("emoji", emoji),
			zap.String("fallback", s.fallbackEmoji),
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID))

		fbCtx, fbCancel := context.WithTimeout(ctx, s.callTimeout)
		defer fbCancel()
		if fbErr := s.reactor.SetReaction(fbCtx, chatID, messageID, []string{s.fallbackEmoji}); fbErr == nil {
			return s.fallbackEmoji, nil
		}
		return "", err
	}

	return "", err
}

// DeliverDirect reacts to an unmoderated tag hit. On success it writes the
// audit log entry and fires the webhook; on failure the reaction goes to the
// retry queue with no moderation back-reference.
func (s *Service) DeliverDirect(ctx context.Context, item model.ModerationItem) (Result, error) {
	applied, err := s.apply(ctx, item.ChatID, item.MessageID, item.Emoji)
	if err != nil {
		metrics.IncReactionDelivered("failed")
		s.logger.Warn("direct reaction failed, queueing",
			zap.String("tag", item.Tag),
			zap.Int64("chat_id", item.ChatID),
			zap.Int("message_id", item.MessageID),
			zap.Error(err))
		return s.enqueue(ctx, "", item.ChatID, item.MessageID, item.Emoji)
	}

	s.afterDelivery(ctx, item, applied, webhook.EventStatusDirect)
	return Result{Delivered: true, Emoji: applied}, nil
}

// DeliverApproved reacts to a moderation item that was just approved. On
// failure the queue entry keeps the item's id so the drain loop can rebuild
// the log entry and webhook payload when the retry succeeds.
func (s *Service) DeliverApproved(ctx context.Context, item model.ModerationItem) (Result, error) {
	applied, err := s.apply(ctx, item.ChatID, item.MessageID, item.Emoji)
	if err != nil {
		metrics.IncReactionDelivered("failed")
		s.logger.Warn("approved reaction failed, queueing",
			zap.String("moderation_id", item.ID),
			zap.String("tag", item.Tag),
			zap.Error(err))
		return s.enqueue(ctx, item.ID, item.ChatID, item.MessageID, item.Emoji)
	}

	s.afterDelivery(ctx, item, applied, string(item.Status))
	return Result{Delivered: true, Emoji: applied}, nil
}

func (s *Service) enqueue(ctx context.Context, moderationID string, chatID int64, messageID int, emoji string) (Result, error) {
	if s.queue == nil {
		return Result{}, fmt.Errorf("reaction queue is not configured")
	}

	_, err := s.queue.Enqueue(ctx, model.ReactionQueueEntry{
		ModerationID: moderationID,
		ChatID:       chatID,
		MessageID:    messageID,
		Emoji:        emoji,
	})
	if err != nil {
		return Result{}, fmt.Errorf("queue failed reaction: %w", err)
	}

	s.updateQueueDepth(ctx)
	return Result{Queued: true}, nil
}

// afterDelivery runs the success side effects. The reaction already landed,
// so log and webhook failures are reported but never undo anything. The
// event status names the delivery path, not the item's intake status.
func (s *Service) afterDelivery(ctx context.Context, item model.ModerationItem, appliedEmoji, eventStatus string) {
	metrics.IncReactionDelivered("ok")
	metrics.IncTagHit(item.Tag)

	if s.activity != nil {
		if err := s.activity.Append(ctx, logEntryFor(item, appliedEmoji)); err != nil {
			s.logger.Warn("activity log append failed",
				zap.String("tag", item.Tag),
				zap.Error(err))
		}
	}

	if s.notifier != nil {
		event := webhook.EventFromModerationItem(item, appliedEmoji)
		event.Status = eventStatus
		s.notifier.Notify(ctx, event)
	}
}

func logEntryFor(item model.ModerationItem, emoji string) model.LogEntry {
	entry := model.LogEntry{
		UserID:     item.UserID,
		Username:   item.Username,
		ChatID:     item.ChatID,
		MessageID:  item.MessageID,
		Trigger:    item.Tag,
		Emoji:      emoji,
		ThreadName: item.ThreadName,
		Caption:    item.Caption,
	}
	if item.Media.HasPhoto {
		entry.MediaType = "photo"
	} else if item.Media.HasVideo {
		entry.MediaType = "video"
	}
	return entry
}

// Drain retries up to one batch of queued reactions, oldest first. Each
// success removes the entry and replays the log and webhook side effects
// when the moderation back-reference still resolves. Each failure bumps the
// attempt counter; entries at the ceiling are dropped with a warning.
func (s *Service) Drain(ctx context.Context) error {
	if s.queue == nil {
		return fmt.Errorf("reaction queue is not configured")
	}

	entries, err := s.queue.ListOldest(ctx, s.drainBatch)
	if err != nil {
		return fmt.Errorf("list reaction queue: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.drainOne(ctx, entry)
	}

	s.updateQueueDepth(ctx)
	return nil
}

func (s *Service) drainOne(ctx context.Context, entry model.ReactionQueueEntry) {
	applied, err := s.apply(ctx, entry.ChatID, entry.MessageID, entry.Emoji)
	if err == nil {
		if removeErr := s.queue.Remove(ctx, entry.ID); removeErr != nil {
			s.logger.Error("remove delivered queue entry failed",
				zap.Int64("entry_id", entry.ID),
				zap.Error(removeErr))
		}
		s.replaySideEffects(ctx, entry, applied)
		return
	}

	attempts, incErr := s.queue.IncrementAttempts(ctx, entry.ID)
	if incErr != nil {
		s.logger.Error("increment reaction attempts failed",
			zap.Int64("entry_id", entry.ID),
			zap.Error(incErr))
		return
	}

	if attempts >= s.maxAttempts {
		s.logger.Warn("abandoning queued reaction after max attempts",
			zap.Int64("entry_id", entry.ID),
			zap.Int64("chat_id", entry.ChatID),
			zap.Int("message_id", entry.MessageID),
			zap.Int("attempts", attempts))
		metrics.IncReactionAbandoned()
		if removeErr := s.queue.Remove(ctx, entry.ID); removeErr != nil {
			s.logger.Error("remove abandoned queue entry failed",
				zap.Int64("entry_id", entry.ID),
				zap.Error(removeErr))
		}
		return
	}

	s.logger.Debug("queued reaction still failing",
		zap.Int64("entry_id", entry.ID),
		zap.Int("attempts", attempts),
		zap.Error(err))
}

// replaySideEffects fires the log entry and webhook for a retried reaction.
// Entries without a moderation back-reference carry too little context to
// rebuild the payload, so only the delivery metrics move for those.
func (s *Service) replaySideEffects(ctx context.Context, entry model.ReactionQueueEntry, appliedEmoji string) {
	metrics.IncReactionDelivered("ok")

	if entry.ModerationID == "" || s.moderation == nil {
		return
	}

	item, err := s.moderation.Get(ctx, entry.ModerationID)
	if err != nil {
		s.logger.Warn("moderation item gone for drained reaction",
			zap.String("moderation_id", entry.ModerationID),
			zap.Error(err))
		return
	}

	metrics.IncTagHit(item.Tag)
	if s.activity != nil {
		if err := s.activity.Append(ctx, logEntryFor(item, appliedEmoji)); err != nil {
			s.logger.Warn("activity log append failed on drain",
				zap.String("tag", item.Tag),
				zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, webhook.EventFromModerationItem(item, appliedEmoji))
	}
}

func (s *Service) updateQueueDepth(ctx context.Context) {
	if s.queue == nil {
		return
	}
	if count, err := s.queue.Count(ctx); err == nil {
		metrics.SetReactionQueueDepth(float64(count))
	}
}
