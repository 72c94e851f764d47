package telegram

import "strings"

// Raw getUpdates wire types. Decoded by hand because the typed v5 structs
// predate forum topics.

type rawUpdate struct {
	UpdateID int         `json:"update_id"`
	Message  *rawMessage `json:"message"`
}

type rawMessage struct {
	MessageID         int            `json:"message_id"`
	From              *rawUser       `json:"from"`
	Chat              rawChat        `json:"chat"`
	Text              string         `json:"text"`
	Caption           string         `json:"caption"`
	Photo             []rawPhotoSize `json:"photo"`
	Video             *rawVideo      `json:"video"`
	IsTopicMessage    bool           `json:"is_topic_message"`
	ReplyToMessage    *rawMessage    `json:"reply_to_message"`
	ForumTopicCreated *rawForumTopic `json:"forum_topic_created"`
}

type rawUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type rawChat struct {
	ID int64 `json:"id"`
}

type rawPhotoSize struct {
	FileID string `json:"file_id"`
}

type rawVideo struct {
	FileID string `json:"file_id"`
}

type rawForumTopic struct {
	Name string `json:"name"`
}

func (m *rawMessage) toUpdate() MessageUpdate {
	upd := MessageUpdate{
		ChatID:     m.Chat.ID,
		MessageID:  m.MessageID,
		Text:       m.Text,
		Caption:    m.Caption,
		ThreadName: m.threadName(),
	}

	if m.From != nil {
		upd.UserID = m.From.ID
		upd.Username = m.From.Username
		upd.DisplayName = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
	}

	// only the largest rendition counts, same as the photo[-1] convention
	if len(m.Photo) > 0 {
		upd.PhotoFileIDs = []string{m.Photo[len(m.Photo)-1].FileID}
	}
	if m.Video != nil && m.Video.FileID != "" {
		upd.VideoFileIDs = []string{m.Video.FileID}
	}

	return upd
}

func (m *rawMessage) threadName() string {
	if !m.IsTopicMessage {
		return ""
	}
	if m.ReplyToMessage != nil && m.ReplyToMessage.ForumTopicCreated != nil {
		return m.ReplyToMessage.ForumTopicCreated.Name
	}
	return "Unknown Thread"
}
