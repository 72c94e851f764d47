package delivery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ivankudzin/tagbot/internal/config"
	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	"github.com/ivankudzin/tagbot/internal/infra/telegram"
	deliverysvc "github.com/ivankudzin/tagbot/internal/services/delivery"
	"github.com/ivankudzin/tagbot/internal/services/webhook"
)

type reactionCall struct {
	ChatID    int64
	MessageID int
	Emojis    []string
}

type fakeReactor struct {
	calls []reactionCall
	// errs is consumed per call; nil entries mean success
	errs []error
}

func (f *fakeReactor) SetReaction(ctx context.Context, chatID int64, messageID int, emojis []string) error {
	f.calls = append(f.calls, reactionCall{ChatID: chatID, MessageID: messageID, Emojis: emojis})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeQueue struct {
	entries []model.ReactionQueueEntry
	nextID  int64
}

func (f *fakeQueue) Enqueue(ctx context.Context, entry model.ReactionQueueEntry) (int64, error) {
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, entry)
	return entry.ID, nil
}

func (f *fakeQueue) ListOldest(ctx context.Context, limit int) ([]model.ReactionQueueEntry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]model.ReactionQueueEntry, limit)
	copy(out, f.entries[:limit])
	return out, nil
}

func (f *fakeQueue) Remove(ctx context.Context, id int64) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeQueue) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Attempts++
			return f.entries[i].Attempts, nil
		}
	}
	return 0, errors.New("entry not found")
}

func (f *fakeQueue) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

type fakeModerationLookup struct {
	items map[string]model.ModerationItem
}

func (f *fakeModerationLookup) Get(ctx context.Context, id string) (model.ModerationItem, error) {
	item, ok := f.items[id]
	if !ok {
		return model.ModerationItem{}, errors.New("moderation item not found")
	}
	return item, nil
}

type fakeNotifier struct {
	events []model.ReactionEvent
}

func (f *fakeNotifier) Notify(ctx context.Context, event model.ReactionEvent) {
	f.events = append(f.events, event)
}

type fakeActivity struct {
	entries []model.LogEntry
}

func (f *fakeActivity) Append(ctx context.Context, entry model.LogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func testDeliveryConfig() config.DeliveryConfig {
	return config.DeliveryConfig{
		MaxConcurrent: 3,
		Timeout:       0,
		FallbackEmoji: "❤️",
		DrainBatch:    5,
		MaxAttempts:   10,
	}
}

func testItem() model.ModerationItem {
	return model.ModerationItem{
		ID:        "item-1",
		ChatID:    -100,
		MessageID: 7,
		UserID:    42,
		Username:  "alice",
		Tag:       "#win",
		Emoji:     "🔥",
		Status:    enums.ModerationApproved,
	}
}

func TestDeliverDirectSuccess(t *testing.T) {
	reactor := &fakeReactor{}
	queue := &fakeQueue{}
	notifier := &fakeNotifier{}
	activity := &fakeActivity{}
	svc := deliverysvc.NewService(reactor, queue, nil, notifier, activity, testDeliveryConfig(), nil)

	result, err := svc.DeliverDirect(context.Background(), testItem())
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !result.Delivered || result.Emoji != "🔥" {
		t.Fatalf("result got=%+v want delivered with 🔥", result)
	}

	if len(reactor.calls) != 1 {
		t.Fatalf("reaction calls got=%d want=1", len(reactor.calls))
	}
	if len(queue.entries) != 0 {
		t.Fatalf("queue entries got=%d want=0", len(queue.entries))
	}
	if len(activity.entries) != 1 || activity.entries[0].Emoji != "🔥" {
		t.Fatalf("activity entries got=%+v", activity.entries)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("webhook events got=%d want=1", len(notifier.events))
	}
	if notifier.events[0].Emoji != "🔥" || notifier.events[0].Tag != "#win" {
		t.Fatalf("webhook event got=%+v", notifier.events[0])
	}
	if notifier.events[0].Status != webhook.EventStatusDirect {
		t.Fatalf("event status got=%q want=%q", notifier.events[0].Status, webhook.EventStatusDirect)
	}
}

func TestDeliverApprovedEventCarriesApprovedStatus(t *testing.T) {
	reactor := &fakeReactor{}
	notifier := &fakeNotifier{}
	svc := deliverysvc.NewService(reactor, &fakeQueue{}, nil, notifier, &fakeActivity{}, testDeliveryConfig(), nil)

	result, err := svc.DeliverApproved(context.Background(), testItem())
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !result.Delivered {
		t.Fatalf("result got=%+v want delivered", result)
	}
	if len(notifier.events) != 1 || notifier.events[0].Status != string(enums.ModerationApproved) {
		t.Fatalf("webhook events got=%+v want one with approved status", notifier.events)
	}
}

func TestDeliverFallsBackOnceOnInvalidReaction(t *testing.T) {
	reactor := &fakeReactor{errs: []error{telegram.ErrReactionInvalid}}
	queue := &fakeQueue{}
	notifier := &fakeNotifier{}
	svc := deliverysvc.NewService(reactor, queue, nil, notifier, &fakeActivity{}, testDeliveryConfig(), nil)

	result, err := svc.DeliverDirect(context.Background(), testItem())
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !result.Delivered || result.Emoji != "❤️" {
		t.Fatalf("result got=%+v want delivered with fallback", result)
	}

	if len(reactor.calls) != 2 {
		t.Fatalf("reaction calls got=%d want=2", len(reactor.calls))
	}
	if got := reactor.calls[1].Emojis[0]; got != "❤️" {
		t.Fatalf("second call emoji got=%q want=❤️", got)
	}
	if notifier.events[0].Emoji != "❤️" {
		t.Fatalf("webhook should carry the applied emoji, got=%q", notifier.events[0].Emoji)
	}
}

func TestDeliverFallbackFailureQueuesOriginalEmoji(t *testing.T) {
	reactor := &fakeReactor{errs: []error{telegram.ErrReactionInvalid, telegram.ErrTimeout}}
	queue := &fakeQueue{}
	notifier := &fakeNotifier{}
	svc := deliverysvc.NewService(reactor, queue, nil, notifier, &fakeActivity{}, testDeliveryConfig(), nil)

	result, err := svc.DeliverDirect(context.Background(), testItem())
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if result.Delivered || !result.Queued {
		t.Fatalf("result got=%+v want queued", result)
	}

	if len(reactor.calls) != 2 {
		t.Fatalf("reaction calls got=%d want=2, fallback is attempted exactly once", len(reactor.calls))
	}
	if len(queue.entries) != 1 {
		t.Fatalf("queue entries got=%d want=1", len(queue.entries))
	}
	if len(notifier.events) != 0 {
		t.Fatalf("webhook must not fire for a failed delivery, events=%d", len(notifier.events))
	}
}

func TestDeliverApprovedFailureKeepsModerationReference(t *testing.T) {
	reactor := &fakeReactor{errs: []error{telegram.ErrTimeout}}
	queue := &fakeQueue{}
	svc := deliverysvc.NewService(reactor, queue, nil, &fakeNotifier{}, &fakeActivity{}, testDeliveryConfig(), nil)

	item := testItem()
	result, err := svc.DeliverApproved(context.Background(), item)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !result.Queued {
		t.Fatalf("result got=%+v want queued", result)
	}
	if queue.entries[0].ModerationID != item.ID {
		t.Fatalf("queued moderation id got=%q want=%q", queue.entries[0].ModerationID, item.ID)
	}
}

func TestDrainDeliversAndReplaysSideEffects(t *testing.T) {
	item := testItem()
	reactor := &fakeReactor{}
	queue := &fakeQueue{}
	lookup := &fakeModerationLookup{items: map[string]model.ModerationItem{item.ID: item}}
	notifier := &fakeNotifier{}
	activity := &fakeActivity{}
	svc := deliverysvc.NewService(reactor, queue, lookup, notifier, activity, testDeliveryConfig(), nil)

	if _, err := queue.Enqueue(context.Background(), model.ReactionQueueEntry{
		ModerationID: item.ID,
		ChatID:       item.ChatID,
		MessageID:    item.MessageID,
		Emoji:        item.Emoji,
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if len(queue.entries) != 0 {
		t.Fatalf("queue entries got=%d want=0", len(queue.entries))
	}
	if len(notifier.events) != 1 || notifier.events[0].Tag != "#win" {
		t.Fatalf("webhook events got=%+v", notifier.events)
	}
	if len(activity.entries) != 1 {
		t.Fatalf("activity entries got=%d want=1", len(activity.entries))
	}
}

func TestDrainSkipsSideEffectsWithoutModerationReference(t *testing.T) {
	reactor := &fakeReactor{}
	queue := &fakeQueue{}
	notifier := &fakeNotifier{}
	activity := &fakeActivity{}
	svc := deliverysvc.NewService(reactor, queue, &fakeModerationLookup{}, notifier, activity, testDeliveryConfig(), nil)

	if _, err := queue.Enqueue(context.Background(), model.ReactionQueueEntry{
		ChatID: -100, MessageID: 7, Emoji: "🔥",
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if len(queue.entries) != 0 {
		t.Fatalf("queue entries got=%d want=0", len(queue.entries))
	}
	if len(notifier.events) != 0 || len(activity.entries) != 0 {
		t.Fatalf("direct entries must not replay side effects: events=%d logs=%d", len(notifier.events), len(activity.entries))
	}
}

func TestDrainDropsEntryAtAttemptCeiling(t *testing.T) {
	reactor := &fakeReactor{errs: []error{telegram.ErrTimeout}}
	queue := &fakeQueue{}
	cfg := testDeliveryConfig()
	cfg.MaxAttempts = 10
	svc := deliverysvc.NewService(reactor, queue, nil, &fakeNotifier{}, &fakeActivity{}, cfg, nil)

	id, err := queue.Enqueue(context.Background(), model.ReactionQueueEntry{
		ChatID: -100, MessageID: 7, Emoji: "🔥",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// nine failures keep the entry around
	for i := 0; i < 9; i++ {
		reactor.errs = []error{telegram.ErrTimeout}
		if err := svc.Drain(context.Background()); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}
	if len(queue.entries) != 1 {
		t.Fatalf("entry dropped early: entries=%d", len(queue.entries))
	}
	if queue.entries[0].Attempts != 9 {
		t.Fatalf("attempts got=%d want=9", queue.entries[0].Attempts)
	}

	// the tenth failure hits the ceiling
	reactor.errs = []error{telegram.ErrTimeout}
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("final drain: %v", err)
	}
	if len(queue.entries) != 0 {
		t.Fatalf("entry id=%d should be dropped at the ceiling, entries=%d", id, len(queue.entries))
	}
}
