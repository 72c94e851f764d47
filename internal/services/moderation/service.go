package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
)

var (
	ErrItemNotFound    = errors.New("moderation item not found")
	ErrAlreadyResolved = errors.New("moderation item is already resolved")
)

type Store interface {
	Create(ctx context.Context, item model.ModerationItem) (string, error)
	ListPending(ctx context.Context) ([]model.ModerationItem, error)
	GetByID(ctx context.Context, id string) (model.ModerationItem, error)
	Resolve(ctx context.Context, id string, status enums.ModerationStatus) error
}

// Service is the human-in-the-loop gate. Pending items are resolved to
// approved or rejected exactly once; the store's status compare-and-set is
// what makes concurrent decisions on the same id safe.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Enqueue(ctx context.Context, item model.ModerationItem) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("moderation store is not configured")
	}

	item.Status = enums.ModerationPending
	return s.store.Create(ctx, item)
}

func (s *Service) ListPending(ctx context.Context) ([]model.ModerationItem, error) {
	if s.store == nil {
		return nil, fmt.Errorf("moderation store is not configured")
	}

	return s.store.ListPending(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (model.ModerationItem, error) {
	if s.store == nil {
		return model.ModerationItem{}, fmt.Errorf("moderation store is not configured")
	}

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrItemNotFound) {
			return model.ModerationItem{}, ErrItemNotFound
		}
		return model.ModerationItem{}, err
	}

	return item, nil
}

// Approve resolves the item and returns it so the caller can attempt
// reaction delivery. The returned item carries the approved status.
func (s *Service) Approve(ctx context.Context, id string) (model.ModerationItem, error) {
	return s.resolve(ctx, id, enums.ModerationApproved)
}

// Reject resolves the item without any reaction ever being attempted.
func (s *Service) Reject(ctx context.Context, id string) (model.ModerationItem, error) {
	return s.resolve(ctx, id, enums.ModerationRejected)
}

func (s *Service) resolve(ctx context.Context, id string, status enums.ModerationStatus) (model.ModerationItem, error) {
	if s.store == nil {
		return model.ModerationItem{}, fmt.Errorf("moderation store is not configured")
	}

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrItemNotFound) {
			return model.ModerationItem{}, ErrItemNotFound
		}
		return model.ModerationItem{}, err
	}

	if err := s.store.Resolve(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrItemNotFound):
			return model.ModerationItem{}, ErrItemNotFound
		case errors.Is(err, pgrepo.ErrAlreadyResolved):
			return model.ModerationItem{}, ErrAlreadyResolved
		}
		return model.ModerationItem{}, err
	}

	item.Status = status
	return item, nil
}
