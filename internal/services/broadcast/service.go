package broadcast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Recipients lists the user ids a broadcast is addressed to.
type Recipients interface {
	DistinctUsers(ctx context.Context) ([]int64, error)
}

// Sender pushes one direct message.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Report summarizes one finished broadcast.
type Report struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Service sends an admin-authored message to every user the bot has seen.
// Sends are paced to stay under Telegram's per-second limits.
type Service struct {
	recipients Recipients
	sender     Sender
	pace       time.Duration
	logger     *zap.Logger
}

func NewService(recipients Recipients, sender Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		recipients: recipients,
		sender:     sender,
		pace:       50 * time.Millisecond,
		logger:     logger,
	}
}

// Preview returns the recipient count without sending anything.
func (s *Service) Preview(ctx context.Context) (int, error) {
	if s.recipients == nil {
		return 0, fmt.Errorf("broadcast recipients source is not configured")
	}

	ids, err := s.recipients.DistinctUsers(ctx)
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}

// Send delivers text to every known user and reports per-recipient failures
// in aggregate. A single blocked user does not stop the run.
func (s *Service) Send(ctx context.Context, text string) (Report, error) {
	if s.recipients == nil || s.sender == nil {
		return Report{}, fmt.Errorf("broadcast is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return Report{}, fmt.Errorf("broadcast text is empty")
	}

	ids, err := s.recipients.DistinctUsers(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		if err := s.sender.SendText(ctx, id, text); err != nil {
			report.Failed++
			s.logger.Warn("broadcast send failed",
				zap.Int64("user_id", id),
				zap.Error(err))
		} else {
			report.Sent++
		}

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-time.After(s.pace):
		}
	}

	s.logger.Info("broadcast finished",
		zap.Int("total", report.Total),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))

	return report, nil
}
