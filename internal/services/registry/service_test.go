package registry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tagbot/internal/repo/redis"
	regsvc "github.com/ivankudzin/tagbot/internal/services/registry"
)

type fakeTagStore struct {
	rules     []model.TagRule
	listCalls int
	nextID    int
}

func (f *fakeTagStore) List(ctx context.Context) ([]model.TagRule, error) {
	f.listCalls++
	out := make([]model.TagRule, len(f.rules))
	copy(out, f.rules)
	return out, nil
}

func (f *fakeTagStore) GetByID(ctx context.Context, id string) (model.TagRule, error) {
	for _, rule := range f.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return model.TagRule{}, pgrepo.ErrTagNotFound
}

func (f *fakeTagStore) Create(ctx context.Context, rule model.TagRule) (string, error) {
	for _, existing := range f.rules {
		if existing.Tag == rule.Tag {
			return "", pgrepo.ErrDuplicateTag
		}
	}
	f.nextID++
	rule.ID = fmt.Sprintf("tag-%d", f.nextID)
	f.rules = append(f.rules, rule)
	return rule.ID, nil
}

func (f *fakeTagStore) Update(ctx context.Context, id string, rule model.TagRule) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			rule.ID = id
			f.rules[i] = rule
			return nil
		}
	}
	return pgrepo.ErrTagNotFound
}

func (f *fakeTagStore) Delete(ctx context.Context, id string) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return pgrepo.ErrTagNotFound
}

func newRegistryForTest(t *testing.T) (*regsvc.Service, *fakeTagStore, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache := redrepo.NewRuleCacheRepo(client, 0)

	store := &fakeTagStore{}
	svc := regsvc.NewService(store, cache, nil)

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return svc, store, cleanup
}

func TestListUsesCacheOnSecondRead(t *testing.T) {
	svc, store, cleanup := newRegistryForTest(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Create(ctx, model.TagRule{Tag: "#win", Emoji: "🔥"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("second list: %v", err)
	}

	if store.listCalls != 1 {
		t.Fatalf("store list calls got=%d want=1", store.listCalls)
	}
}

func TestMutationsInvalidateCache(t *testing.T) {
	svc, _, cleanup := newRegistryForTest(t)
	defer cleanup()

	ctx := context.Background()
	id, err := svc.Create(ctx, model.TagRule{Tag: "#win", Emoji: "🔥"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rules, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules len got=%d want=1", len(rules))
	}

	if err := svc.Update(ctx, id, model.TagRule{Tag: "#won", Emoji: "🎉"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rules, err = svc.List(ctx)
	if err != nil {
		t.Fatalf("list after update: %v", err)
	}
	if len(rules) != 1 || rules[0].Tag != "#won" {
		t.Fatalf("stale rules after update: %+v", rules)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rules, err = svc.List(ctx)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(rules) != 0 {
		t.Fatalf("stale rules after delete: %+v", rules)
	}
}

// racingTagStore repopulates the cache mid-mutation: its Create runs a full
// List through the service before the new rule lands in the store, the way a
// concurrent reader slipping between the pre-write invalidation and the
// write would.
type racingTagStore struct {
	fakeTagStore
	listDuringCreate func(ctx context.Context)
}

func (f *racingTagStore) Create(ctx context.Context, rule model.TagRule) (string, error) {
	if f.listDuringCreate != nil {
		f.listDuringCreate(ctx)
	}
	return f.fakeTagStore.Create(ctx, rule)
}

func TestListAfterCreateSeesNewRuleDespiteConcurrentList(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := redrepo.NewRuleCacheRepo(client, 0)

	store := &racingTagStore{}
	svc := regsvc.NewService(store, cache, nil)
	store.listDuringCreate = func(ctx context.Context) {
		if _, err := svc.List(ctx); err != nil {
			t.Fatalf("list during create: %v", err)
		}
	}

	ctx := context.Background()
	if _, err := svc.Create(ctx, model.TagRule{Tag: "#win", Emoji: "🔥"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rules, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules after create got=%d want=1", len(rules))
	}
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	svc, store, cleanup := newRegistryForTest(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Create(ctx, model.TagRule{Tag: "  #WIN ", Emoji: "🔥", Delay: 500}); err != nil {
		t.Fatalf("create: %v", err)
	}

	created := store.rules[0]
	if created.Tag != "#win" {
		t.Fatalf("trigger not lowercased: %q", created.Tag)
	}
	if created.Delay != 60 {
		t.Fatalf("delay not clamped: got=%d want=60", created.Delay)
	}
	if created.MatchMode != enums.MatchModeEquals {
		t.Fatalf("default match mode got=%q want=%q", created.MatchMode, enums.MatchModeEquals)
	}

	if _, err := svc.Create(ctx, model.TagRule{Tag: "", Emoji: "🔥"}); !errors.Is(err, regsvc.ErrInvalidRule) {
		t.Fatalf("empty trigger err=%v want ErrInvalidRule", err)
	}
	if _, err := svc.Create(ctx, model.TagRule{Tag: "#x", Emoji: "🔥", MatchMode: "fuzzy"}); !errors.Is(err, regsvc.ErrInvalidRule) {
		t.Fatalf("bad match mode err=%v want ErrInvalidRule", err)
	}
}

func TestCreateDuplicateTrigger(t *testing.T) {
	svc, _, cleanup := newRegistryForTest(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Create(ctx, model.TagRule{Tag: "#win", Emoji: "🔥"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, model.TagRule{Tag: "#WIN", Emoji: "🎉"}); !errors.Is(err, regsvc.ErrDuplicateTag) {
		t.Fatalf("duplicate create err=%v want ErrDuplicateTag", err)
	}
}
