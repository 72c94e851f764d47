package moderation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	modsvc "github.com/ivankudzin/tagbot/internal/services/moderation"
)

type fakeModerationStore struct {
	items  map[string]model.ModerationItem
	nextID int
}

func newFakeModerationStore() *fakeModerationStore {
	return &fakeModerationStore{items: map[string]model.ModerationItem{}}
}

func (f *fakeModerationStore) Create(ctx context.Context, item model.ModerationItem) (string, error) {
	f.nextID++
	item.ID = fmt.Sprintf("item-%d", f.nextID)
	f.items[item.ID] = item
	return item.ID, nil
}

func (f *fakeModerationStore) ListPending(ctx context.Context) ([]model.ModerationItem, error) {
	var out []model.ModerationItem
	for _, item := range f.items {
		if item.Status == enums.ModerationPending {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeModerationStore) GetByID(ctx context.Context, id string) (model.ModerationItem, error) {
	item, ok := f.items[id]
	if !ok {
		return model.ModerationItem{}, pgrepo.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeModerationStore) Resolve(ctx context.Context, id string, status enums.ModerationStatus) error {
	item, ok := f.items[id]
	if !ok {
		return pgrepo.ErrItemNotFound
	}
	if item.Status != enums.ModerationPending {
		return pgrepo.ErrAlreadyResolved
	}
	item.Status = status
	f.items[id] = item
	return nil
}

func TestApproveResolvesPendingItem(t *testing.T) {
	store := newFakeModerationStore()
	svc := modsvc.NewService(store)

	ctx := context.Background()
	id, err := svc.Enqueue(ctx, model.ModerationItem{
		ChatID:    -100,
		MessageID: 7,
		UserID:    42,
		Tag:       "#win",
		Emoji:     "🔥",
		Status:    enums.ModerationApproved, // intake always starts pending
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending len got=%d want=1", len(pending))
	}

	item, err := svc.Approve(ctx, id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if item.Status != enums.ModerationApproved {
		t.Fatalf("status got=%q want=%q", item.Status, enums.ModerationApproved)
	}

	pending, err = svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending after approve: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending len after approve got=%d want=0", len(pending))
	}
}

func TestResolveIsExactlyOnce(t *testing.T) {
	store := newFakeModerationStore()
	svc := modsvc.NewService(store)

	ctx := context.Background()
	id, err := svc.Enqueue(ctx, model.ModerationItem{ChatID: -100, MessageID: 7, UserID: 42, Tag: "#win", Emoji: "🔥"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := svc.Approve(ctx, id); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := svc.Approve(ctx, id); !errors.Is(err, modsvc.ErrAlreadyResolved) {
		t.Fatalf("second approve err=%v want ErrAlreadyResolved", err)
	}
	if _, err := svc.Reject(ctx, id); !errors.Is(err, modsvc.ErrAlreadyResolved) {
		t.Fatalf("reject after approve err=%v want ErrAlreadyResolved", err)
	}
}

func TestResolveUnknownItem(t *testing.T) {
	svc := modsvc.NewService(newFakeModerationStore())

	if _, err := svc.Approve(context.Background(), "missing"); !errors.Is(err, modsvc.ErrItemNotFound) {
		t.Fatalf("approve missing err=%v want ErrItemNotFound", err)
	}
	if _, err := svc.Reject(context.Background(), "missing"); !errors.Is(err, modsvc.ErrItemNotFound) {
		t.Fatalf("reject missing err=%v want ErrItemNotFound", err)
	}
}
