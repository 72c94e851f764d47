package model

import "time"

// LogEntry is one append-only record of a tag hit.
type LogEntry struct {
	ID         int64
	UserID     int64
	Username   string
	ChatID     int64
	MessageID  int
	Trigger    string
	Emoji      string
	ThreadName string
	MediaType  string
	Caption    string
	Timestamp  time.Time
}
