package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tagbot/internal/repo/redis"
)

var (
	ErrDuplicateTag = errors.New("tag trigger already exists")
	ErrTagNotFound  = errors.New("tag not found")
	ErrInvalidRule  = errors.New("invalid tag rule")
)

const maxDelaySeconds = 60

type Store interface {
	List(ctx context.Context) ([]model.TagRule, error)
	GetByID(ctx context.Context, id string) (model.TagRule, error)
	Create(ctx context.Context, rule model.TagRule) (string, error)
	Update(ctx context.Context, id string, rule model.TagRule) error
	Delete(ctx context.Context, id string) error
}

type Cache interface {
	Get(ctx context.Context) ([]model.TagRule, error)
	Set(ctx context.Context, rules []model.TagRule) error
	Invalidate(ctx context.Context) error
}

// Service is the tag registry: validated rule CRUD over the store plus a
// read cache that is invalidated on both sides of every mutation, so the
// very next List reflects the change even when a concurrent List
// repopulates the cache mid-write.
type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

func NewService(store Store, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]model.TagRule, error) {
	if s.store == nil {
		return nil, fmt.Errorf("tag registry store is not configured")
	}

	if s.cache != nil {
		rules, err := s.cache.Get(ctx)
		if err == nil {
			return rules, nil
		}
		if !errors.Is(err, redrepo.ErrCacheMiss) {
			s.logger.Warn("rule cache read failed", zap.Error(err))
		}
	}

	rules, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rules); err != nil {
			s.logger.Warn("rule cache write failed", zap.Error(err))
		}
	}

	return rules, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.TagRule, error) {
	if s.store == nil {
		return model.TagRule{}, fmt.Errorf("tag registry store is not configured")
	}

	rule, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrTagNotFound) {
			return model.TagRule{}, ErrTagNotFound
		}
		return model.TagRule{}, err
	}

	return rule, nil
}

func (s *Service) Create(ctx context.Context, rule model.TagRule) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("tag registry store is not configured")
	}

	normalized, err := normalize(rule)
	if err != nil {
		return "", err
	}

	if err := s.invalidate(ctx); err != nil {
		return "", err
	}

	id, err := s.store.Create(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgrepo.ErrDuplicateTag) {
			return "", ErrDuplicateTag
		}
		return "", err
	}

	s.invalidateAfterWrite(ctx)
	return id, nil
}

func (s *Service) Update(ctx context.Context, id string, rule model.TagRule) error {
	if s.store == nil {
		return fmt.Errorf("tag registry store is not configured")
	}

	normalized, err := normalize(rule)
	if err != nil {
		return err
	}

	if err := s.invalidate(ctx); err != nil {
		return err
	}

	if err := s.store.Update(ctx, id, normalized); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrTagNotFound):
			return ErrTagNotFound
		case errors.Is(err, pgrepo.ErrDuplicateTag):
			return ErrDuplicateTag
		}
		return err
	}

	s.invalidateAfterWrite(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return fmt.Errorf("tag registry store is not configured")
	}

	if err := s.invalidate(ctx); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgrepo.ErrTagNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	s.invalidateAfterWrite(ctx)
	return nil
}

// invalidate runs before the store write: a failed invalidation aborts the
// mutation rather than leaving a stale snapshot behind.
func (s *Service) invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate rule cache: %w", err)
	}
	return nil
}

// invalidateAfterWrite runs once more after the store write commits. A List
// that raced the mutation may have repopulated the cache with the old
// snapshot between the pre-write invalidation and the write; dropping the
// key again keeps the next List reading through to the store. The write has
// already happened, so a failure here is logged rather than returned.
func (s *Service) invalidateAfterWrite(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("rule cache invalidation after write failed", zap.Error(err))
	}
}

func normalize(rule model.TagRule) (model.TagRule, error) {
	rule.Tag = strings.ToLower(strings.TrimSpace(rule.Tag))
	rule.Emoji = strings.TrimSpace(rule.Emoji)
	rule.ThreadName = strings.TrimSpace(rule.ThreadName)
	rule.CounterName = strings.TrimSpace(rule.CounterName)
	rule.ReplyOK = strings.TrimSpace(rule.ReplyOK)
	rule.ReplyNeedMedia = strings.TrimSpace(rule.ReplyNeedMedia)
	rule.ReplyDuplicate = strings.TrimSpace(rule.ReplyDuplicate)
	rule.ReplyPending = strings.TrimSpace(rule.ReplyPending)

	if rule.Tag == "" {
		return model.TagRule{}, fmt.Errorf("%w: trigger is required", ErrInvalidRule)
	}
	if rule.Emoji == "" {
		return model.TagRule{}, fmt.Errorf("%w: emoji is required", ErrInvalidRule)
	}
	if rule.MatchMode == "" {
		rule.MatchMode = enums.MatchModeEquals
	}
	if !rule.MatchMode.Valid() {
		return model.TagRule{}, fmt.Errorf("%w: unknown match mode %q", ErrInvalidRule, rule.MatchMode)
	}

	if rule.Delay < 0 {
		rule.Delay = 0
	}
	if rule.Delay > maxDelaySeconds {
		rule.Delay = maxDelaySeconds
	}

	return rule, nil
}
