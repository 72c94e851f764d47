package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	regsvc "github.com/ivankudzin/tagbot/internal/services/registry"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	"github.com/ivankudzin/tagbot/internal/transport/http/handlers"
)

type fakeTagStore struct {
	rules  []model.TagRule
	nextID int
}

func (f *fakeTagStore) List(ctx context.Context) ([]model.TagRule, error) {
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

func newTagRouter(store *fakeTagStore) http.Handler {
	handler := handlers.NewTagHandler(regsvc.NewService(store, nil, nil))

	r := chi.NewRouter()
	r.Get("/api/tags", handler.List)
	r.Post("/api/tags", handler.Create)
	r.Get("/api/tags/{id}", handler.Get)
	r.Put("/api/tags/{id}", handler.Update)
	r.Delete("/api/tags/{id}", handler.Delete)
	return r
}

func TestTagCRUD(t *testing.T) {
	store := &fakeTagStore{}
	router := newTagRouter(store)

	body := `{"tag":"#Win","emoji":"🔥","match_mode":"equals","delay":5,"reply_ok":"nice"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status got=%d body=%s", rr.Code, rr.Body.String())
	}

	var created struct {
		Success bool            `json:"success"`
		Data    dto.TagResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Data.Tag != "#win" {
		t.Fatalf("trigger not normalized: %q", created.Data.Tag)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status got=%d", rr.Code)
	}

	update := `{"tag":"#won","emoji":"🎉","match_mode":"prefix"}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/tags/"+created.Data.ID, strings.NewReader(update)))
	if rr.Code != http.StatusOK {
		t.Fatalf("update status got=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/tags/"+created.Data.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status got=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tags/"+created.Data.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status got=%d want=%d", rr.Code, http.StatusNotFound)
	}
}

func TestCreateTagValidation(t *testing.T) {
	router := newTagRouter(&fakeTagStore{})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing trigger", `{"emoji":"🔥"}`, http.StatusBadRequest},
		{"missing emoji", `{"tag":"#win"}`, http.StatusBadRequest},
		{"bad match mode", `{"tag":"#win","emoji":"🔥","match_mode":"fuzzy"}`, http.StatusBadRequest},
		{"not json", `hello`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(tc.body)))
			if rr.Code != tc.want {
				t.Fatalf("status got=%d want=%d body=%s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestCreateDuplicateTagConflicts(t *testing.T) {
	router := newTagRouter(&fakeTagStore{})

	body := `{"tag":"#win","emoji":"🔥"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first create status got=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(body)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate create status got=%d want=%d", rr.Code, http.StatusConflict)
	}
}
