package model

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
)

// MediaInfo describes media attached to a single inbound message.
type MediaInfo struct {
	HasPhoto     bool     `json:"has_photo"`
	HasVideo     bool     `json:"has_video"`
	PhotoFileIDs []string `json:"photo_file_ids,omitempty"`
	VideoFileIDs []string `json:"video_file_ids,omitempty"`
}

func (m MediaInfo) HasAny() bool {
	return m.HasPhoto || m.HasVideo
}

func (m MediaInfo) FileIDs() []string {
	ids := make([]string, 0, len(m.PhotoFileIDs)+len(m.VideoFileIDs))
	ids = append(ids, m.PhotoFileIDs...)
	ids = append(ids, m.VideoFileIDs...)
	return ids
}

func (m MediaInfo) Kind() enums.MediaKind {
	if m.HasPhoto {
		return enums.MediaPhoto
	}
	return enums.MediaVideo
}

func (m MediaInfo) KindOf(fileID string) enums.MediaKind {
	for _, id := range m.PhotoFileIDs {
		if id == fileID {
			return enums.MediaPhoto
		}
	}
	return enums.MediaVideo
}

// MediaHashRecord is one row of the duplicate-media index. A hash belongs to
// the most recent (user, message) that legitimately presented it.
type MediaHashRecord struct {
	ID        int64
	FileHash  string
	FileID    string
	Kind      enums.MediaKind
	UserID    int64
	ChatID    int64
	MessageID int
	CreatedAt time.Time
}
