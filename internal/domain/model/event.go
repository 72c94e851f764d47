package model

// ReactionEvent is the payload posted to the external backend after a
// reaction has actually been applied. Field order is the signed wire order.
type ReactionEvent struct {
	TGUserID     string   `json:"tg_user_id"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"display_name"`
	Tag          string   `json:"tag"`
	CounterName  string   `json:"counter_name"`
	Emoji        string   `json:"emoji"`
	ChatID       string   `json:"chat_id"`
	MessageID    string   `json:"message_id"`
	Text         string   `json:"text"`
	Caption      string   `json:"caption"`
	ThreadName   string   `json:"thread_name"`
	HasPhoto     bool     `json:"has_photo"`
	HasVideo     bool     `json:"has_video"`
	MediaFileIDs []string `json:"media_file_ids"`
	Status       string   `json:"status"`
	Timestamp    string   `json:"timestamp"`
}
