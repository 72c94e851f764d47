package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Downloader fetches raw media bytes from Telegram by file id.
type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

// Service copies moderated media into object storage so reviewers can see
// what they are approving even after Telegram expires the file link.
type Service struct {
	client     *minio.Client
	downloader Downloader
	bucket     string
	presignTTL time.Duration
	logger     *zap.Logger
}

func NewService(client *minio.Client, downloader Downloader, bucket string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		client:     client,
		downloader: downloader,
		bucket:     bucket,
		presignTTL: 15 * time.Minute,
		logger:     logger,
	}
}

// Enabled reports whether object storage is wired. Archiving is best effort
// and the moderation flow works without it.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil && s.bucket != ""
}

// ObjectKey is the deterministic storage key for one file of one submission.
func ObjectKey(moderationID, fileID string) string {
	return path.Join("moderation", moderationID, fileID)
}

// Store downloads the file from Telegram and uploads it under the
// submission's key. Failures are logged and swallowed so a storage outage
// never blocks moderation intake.
func (s *Service) Store(ctx context.Context, moderationID, fileID string) {
	if !s.Enabled() || s.downloader == nil {
		return
	}
	if strings.TrimSpace(fileID) == "" {
		return
	}

	data, contentType, err := s.downloader.DownloadFile(ctx, fileID)
	if err != nil {
		s.logger.Warn("media download for archive failed",
			zap.String("moderation_id", moderationID),
			zap.String("file_id", fileID),
			zap.Error(err))
		return
	}

	key := ObjectKey(moderationID, fileID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Warn("media archive upload failed",
			zap.String("moderation_id", moderationID),
			zap.String("key", key),
			zap.Error(err))
		return
	}

	s.logger.Debug("media archived",
		zap.String("moderation_id", moderationID),
		zap.String("key", key),
		zap.Int("size", len(data)))
}

// StoreAll archives every file of a submission.
func (s *Service) StoreAll(ctx context.Context, moderationID string, fileIDs []string) {
	for _, fileID := range fileIDs {
		s.Store(ctx, moderationID, fileID)
	}
}

// PresignView returns a short-lived GET URL for an archived file.
func (s *Service) PresignView(ctx context.Context, moderationID, fileID string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("media archive is not configured")
	}

	key := ObjectKey(moderationID, fileID)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign archived media: %w", err)
	}

	return u.String(), nil
}
