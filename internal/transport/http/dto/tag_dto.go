package dto

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
)

type TagRequest struct {
	Tag               string `json:"tag"`
	Emoji             string `json:"emoji"`
	Delay             int    `json:"delay"`
	MatchMode         string `json:"match_mode"`
	RequireMedia      bool   `json:"require_media"`
	ThreadName        string `json:"thread_name"`
	ModerationEnabled bool   `json:"moderation_enabled"`
	CounterName       string `json:"counter_name"`
	ReplyOK           string `json:"reply_ok"`
	ReplyNeedMedia    string `json:"reply_need_media"`
	ReplyDuplicate    string `json:"reply_duplicate"`
	ReplyPending      string `json:"reply_pending"`
}

type TagResponse struct {
	ID                string    `json:"id"`
	Tag               string    `json:"tag"`
	Emoji             string    `json:"emoji"`
	Delay             int       `json:"delay"`
	MatchMode         string    `json:"match_mode"`
	RequireMedia      bool      `json:"require_media"`
	ThreadName        string    `json:"thread_name"`
	ModerationEnabled bool      `json:"moderation_enabled"`
	CounterName       string    `json:"counter_name"`
	ReplyOK           string    `json:"reply_ok"`
	ReplyNeedMedia    string    `json:"reply_need_media"`
	ReplyDuplicate    string    `json:"reply_duplicate"`
	ReplyPending      string    `json:"reply_pending"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (r TagRequest) ToModel() model.TagRule {
	return model.TagRule{
		Tag:               r.Tag,
		Emoji:             r.Emoji,
		Delay:             r.Delay,
		MatchMode:         enums.MatchMode(r.MatchMode),
		RequireMedia:      r.RequireMedia,
		ThreadName:        r.ThreadName,
		ModerationEnabled: r.ModerationEnabled,
		CounterName:       r.CounterName,
		ReplyOK:           r.ReplyOK,
		ReplyNeedMedia:    r.ReplyNeedMedia,
		ReplyDuplicate:    r.ReplyDuplicate,
		ReplyPending:      r.ReplyPending,
	}
}

func TagResponseFromModel(rule model.TagRule) TagResponse {
	return TagResponse{
		ID:                rule.ID,
		Tag:               rule.Tag,
		Emoji:             rule.Emoji,
		Delay:             rule.Delay,
		MatchMode:         string(rule.MatchMode),
		RequireMedia:      rule.RequireMedia,
		ThreadName:        rule.ThreadName,
		ModerationEnabled: rule.ModerationEnabled,
		CounterName:       rule.CounterName,
		ReplyOK:           rule.ReplyOK,
		ReplyNeedMedia:    rule.ReplyNeedMedia,
		ReplyDuplicate:    rule.ReplyDuplicate,
		ReplyPending:      rule.ReplyPending,
		CreatedAt:         rule.CreatedAt,
		UpdatedAt:         rule.UpdatedAt,
	}
}

func TagResponsesFromModels(rules []model.TagRule) []TagResponse {
	out := make([]TagResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, TagResponseFromModel(rule))
	}
	return out
}
