package matcher

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
)

// Match scans the rules in order and returns the first one whose trigger
// fires on the text, or nil. Rule order is registry insertion order, so
// matching is deterministic: first match wins, not best match.
//
// Triggers are compared against whitespace-delimited tokens rather than
// through \b word boundaries, which misfire on non-Latin alphabets.
func Match(text, threadName string, rules []model.TagRule) *model.TagRule {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil
	}

	for i := range rules {
		rule := &rules[i]
		trigger := strings.ToLower(strings.TrimSpace(rule.Tag))
		if trigger == "" {
			continue
		}

		if !matchTokens(tokens, trigger, rule.MatchMode) {
			continue
		}

		// a thread-scoped rule that fired in the wrong thread kills the
		// match entirely, it does not fall through to later rules
		if rule.ThreadName != "" && !sameThread(rule.ThreadName, threadName) {
			return nil
		}

		return rule
	}

	return nil
}

func matchTokens(tokens []string, trigger string, mode enums.MatchMode) bool {
	for _, token := range tokens {
		switch mode {
		case enums.MatchModePrefix:
			if strings.HasPrefix(token, trigger) {
				return true
			}
		default:
			if token == trigger {
				return true
			}
		}
	}
	return false
}

func sameThread(want, got string) bool {
	return strings.EqualFold(
		norm.NFC.String(strings.TrimSpace(want)),
		norm.NFC.String(strings.TrimSpace(got)),
	)
}
