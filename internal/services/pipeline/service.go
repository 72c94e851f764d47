package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	"github.com/ivankudzin/tagbot/internal/infra/telegram"
	"github.com/ivankudzin/tagbot/internal/services/dedup"
	"github.com/ivankudzin/tagbot/internal/services/delivery"
	"github.com/ivankudzin/tagbot/internal/services/matcher"
)

// Rules lists the active tag rules in registry order.
type Rules interface {
	List(ctx context.Context) ([]model.TagRule, error)
}

// Moderator queues submissions that need human review.
type Moderator interface {
	Enqueue(ctx context.Context, item model.ModerationItem) (string, error)
}

// Deduper checks media against the duplicate index.
type Deduper interface {
	RecordAndCheck(ctx context.Context, fileHash, fileID string, kind enums.MediaKind, userID, chatID int64, messageID int) (dedup.Verdict, error)
}

// Deliverer applies reactions and drains the retry queue.
type Deliverer interface {
	DeliverDirect(ctx context.Context, item model.ModerationItem) (delivery.Result, error)
	Drain(ctx context.Context) error
}

// Archiver copies submission media into object storage.
type Archiver interface {
	StoreAll(ctx context.Context, moderationID string, fileIDs []string)
}

// Replier answers the triggering message in chat.
type Replier interface {
	Reply(ctx context.Context, chatID int64, messageID int, text string) error
}

// Downloader fetches media bytes for content hashing.
type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

// Service is the inbound message flow: match a rule, enforce its media and
// moderation settings, then either queue the submission for review or react
// right away.
type Service struct {
	rules      Rules
	moderation Moderator
	deduper    Deduper
	deliverer  Deliverer
	archiver   Archiver
	replier    Replier
	downloader Downloader
	logger     *zap.Logger

	// sleep is swapped out in tests so delayed rules do not slow them down.
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewService(
	rules Rules,
	moderation Moderator,
	deduper Deduper,
	deliverer Deliverer,
	archiver Archiver,
	replier Replier,
	downloader Downloader,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		rules:      rules,
		moderation: moderation,
		deduper:    deduper,
		deliverer:  deliverer,
		archiver:   archiver,
		replier:    replier,
		downloader: downloader,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// HandleMessage processes one inbound chat message. Every message also
// nudges the retry queue, so a quiet backlog drains even between ticks.
func (s *Service) HandleMessage(ctx context.Context, msg telegram.MessageUpdate) error {
	if s.deliverer != nil {
		if err := s.deliverer.Drain(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("opportunistic queue drain failed", zap.Error(err))
		}
	}

	text := msg.Text
	if strings.TrimSpace(text) == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ruleList, err := s.rules.List(ctx)
	if err != nil {
		return err
	}

	rule := matcher.Match(text, msg.ThreadName, ruleList)
	if rule == nil {
		return nil
	}

	media := mediaInfoOf(msg)

	if rule.RequireMedia && !media.HasAny() {
		s.reply(ctx, msg, rule.ReplyNeedMedia)
		return nil
	}

	if media.HasAny() && !rule.ModerationEnabled && s.deduper != nil {
		duplicate, err := s.checkDuplicates(ctx, msg, media)
		if err != nil {
			s.logger.Warn("media dedup check failed, treating as fresh",
				zap.String("tag", rule.Tag),
				zap.Error(err))
		} else if duplicate {
			s.reply(ctx, msg, rule.ReplyDuplicate)
			return nil
		}
	}

	item := itemFor(msg, *rule, media)

	if rule.ModerationEnabled {
		return s.submitForReview(ctx, msg, *rule, item)
	}

	return s.reactNow(ctx, msg, *rule, item)
}

func (s *Service) submitForReview(ctx context.Context, msg telegram.MessageUpdate, rule model.TagRule, item model.ModerationItem) error {
	id, err := s.moderation.Enqueue(ctx, item)
	if err != nil {
		return err
	}

	s.logger.Info("submission queued for moderation",
		zap.String("moderation_id", id),
		zap.String("tag", rule.Tag),
		zap.Int64("chat_id", msg.ChatID),
		zap.Int("message_id", msg.MessageID))

	if s.archiver != nil && item.Media.HasAny() {
		s.archiver.StoreAll(ctx, id, item.Media.FileIDs())
	}

	s.reply(ctx, msg, rule.ReplyPending)
	return nil
}

func (s *Service) reactNow(ctx context.Context, msg telegram.MessageUpdate, rule model.TagRule, item model.ModerationItem) error {
	if rule.Delay > 0 {
		if !s.sleep(ctx, time.Duration(rule.Delay)*time.Second) {
			return ctx.Err()
		}
	}

	result, err := s.deliverer.DeliverDirect(ctx, item)
	if err != nil {
		return err
	}

	if result.Delivered {
		s.reply(ctx, msg, rule.ReplyOK)
	}
	return nil
}

// checkDuplicates hashes every attached file by content and consults the
// index. One already-claimed file makes the whole submission a duplicate.
func (s *Service) checkDuplicates(ctx context.Context, msg telegram.MessageUpdate, media model.MediaInfo) (bool, error) {
	if s.downloader == nil {
		return false, nil
	}

	for _, fileID := range media.FileIDs() {
		data, _, err := s.downloader.DownloadFile(ctx, fileID)
		if err != nil {
			return false, err
		}

		sum := md5.Sum(data)
		verdict, err := s.deduper.RecordAndCheck(
			ctx,
			hex.EncodeToString(sum[:]),
			fileID,
			media.KindOf(fileID),
			msg.UserID,
			msg.ChatID,
			msg.MessageID,
		)
		if err != nil {
			return false, err
		}
		if verdict == dedup.Duplicate {
			return true, nil
		}
	}

	return false, nil
}

func (s *Service) reply(ctx context.Context, msg telegram.MessageUpdate, text string) {
	if s.replier == nil || strings.TrimSpace(text) == "" {
		return
	}
	if err := s.replier.Reply(ctx, msg.ChatID, msg.MessageID, text); err != nil {
		s.logger.Warn("chat reply failed",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int("message_id", msg.MessageID),
			zap.Error(err))
	}
}

func mediaInfoOf(msg telegram.MessageUpdate) model.MediaInfo {
	return model.MediaInfo{
		HasPhoto:     len(msg.PhotoFileIDs) > 0,
		HasVideo:     len(msg.VideoFileIDs) > 0,
		PhotoFileIDs: msg.PhotoFileIDs,
		VideoFileIDs: msg.VideoFileIDs,
	}
}

func itemFor(msg telegram.MessageUpdate, rule model.TagRule, media model.MediaInfo) model.ModerationItem {
	return model.ModerationItem{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		UserID:      msg.UserID,
		Username:    msg.Username,
		DisplayName: msg.DisplayName,
		Tag:         rule.Tag,
		Emoji:       rule.Emoji,
		Text:        msg.Text,
		Caption:     msg.Caption,
		Media:       media,
		ThreadName:  msg.ThreadName,
		CounterName: rule.CounterName,
		Status:      enums.ModerationPending,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
