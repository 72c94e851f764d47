package enums

// MatchMode selects how a tag trigger is compared against message tokens.
type MatchMode string

const (
	// MatchModeEquals requires the trigger to equal a whole
	// whitespace-delimited token.
	MatchModeEquals MatchMode = "equals"
	// MatchModePrefix accepts any token that starts with the trigger.
	MatchModePrefix MatchMode = "prefix"
)

func (m MatchMode) Valid() bool {
	switch m {
	case MatchModeEquals, MatchModePrefix:
		return true
	}
	return false
}
