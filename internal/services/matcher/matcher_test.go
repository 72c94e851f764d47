package matcher_test

import (
	"testing"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
	"github.com/ivankudzin/tagbot/internal/services/matcher"
)

func rule(tag string, mode enums.MatchMode, thread string) model.TagRule {
	return model.TagRule{
		ID:         "rule-" + tag,
		Tag:        tag,
		Emoji:      "🔥",
		MatchMode:  mode,
		ThreadName: thread,
	}
}

func TestMatchEqualsWholeTokenOnly(t *testing.T) {
	rules := []model.TagRule{rule("#win", enums.MatchModeEquals, "")}

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"exact token", "#win", true},
		{"token in sentence", "what a day #win for me", true},
		{"case insensitive", "#WIN", true},
		{"substring of longer token", "#winning", false},
		{"embedded in word", "nice#win", false},
		{"empty text", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := matcher.Match(tc.text, "", rules)
			if (got != nil) != tc.want {
				t.Fatalf("Match(%q) matched=%v want=%v", tc.text, got != nil, tc.want)
			}
		})
	}
}

func TestMatchPrefixAcceptsExtensions(t *testing.T) {
	rules := []model.TagRule{rule("#win", enums.MatchModePrefix, "")}

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"exact token", "#win", true},
		{"extended token", "#winning streak", true},
		{"prefix mid sentence", "look #winner here", true},
		{"different token", "#lose", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := matcher.Match(tc.text, "", rules)
			if (got != nil) != tc.want {
				t.Fatalf("Match(%q) matched=%v want=%v", tc.text, got != nil, tc.want)
			}
		})
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	rules := []model.TagRule{
		rule("#win", enums.MatchModeEquals, ""),
		rule("#win", enums.MatchModePrefix, ""),
	}

	got := matcher.Match("#win", "", rules)
	if got == nil {
		t.Fatal("expected a match")
	}
	if got.ID != rules[0].ID {
		t.Fatalf("matched rule id=%s want=%s", got.ID, rules[0].ID)
	}
}

func TestMatchThreadScope(t *testing.T) {
	rules := []model.TagRule{
		rule("#win", enums.MatchModeEquals, "Победы"),
		rule("#win", enums.MatchModeEquals, ""),
	}

	t.Run("right thread matches", func(t *testing.T) {
		got := matcher.Match("#win", "Победы", rules)
		if got == nil || got.ID != rules[0].ID {
			t.Fatalf("expected thread-scoped rule, got %+v", got)
		}
	})

	t.Run("wrong thread kills the match", func(t *testing.T) {
		// the scoped rule fired first, so later rules never get a chance
		if got := matcher.Match("#win", "Other", rules); got != nil {
			t.Fatalf("expected no match, got rule id=%s", got.ID)
		}
	})

	t.Run("thread name comparison is case insensitive", func(t *testing.T) {
		if got := matcher.Match("#win", "победы", rules); got == nil {
			t.Fatal("expected a match across letter case")
		}
	})
}

func TestMatchSkipsEmptyTriggers(t *testing.T) {
	rules := []model.TagRule{
		rule("", enums.MatchModeEquals, ""),
		rule("#ok", enums.MatchModeEquals, ""),
	}

	got := matcher.Match("#ok", "", rules)
	if got == nil || got.Tag != "#ok" {
		t.Fatalf("expected #ok rule, got %+v", got)
	}
}
