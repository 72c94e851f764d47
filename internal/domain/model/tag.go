package model

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
)

// TagRule is a configured trigger and everything the bot does when it fires.
type TagRule struct {
	ID                string
	Tag               string
	Emoji             string
	Delay             int
	MatchMode         enums.MatchMode
	RequireMedia      bool
	ThreadName        string
	ModerationEnabled bool
	CounterName       string
	ReplyOK           string
	ReplyNeedMedia    string
	ReplyDuplicate    string
	ReplyPending      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
