package dto

import (
	"time"

	"go-meeting-sync/modules/transcript/entity"

	"github.com/google/uuid"
)

type SaveTranscriptRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

type TranscriptResponse struct {
	ID        uuid.UUID `json:"id"`
	MeetingID uuid.UUID `json:"meeting_id"`
	Content   string    `json:"content"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToTranscriptResponse(t *entity.Transcript) *TranscriptResponse {
	return &TranscriptResponse{
		ID:        t.ID,
		MeetingID: t.MeetingID,
		Content:   t.Content,
		Language:  t.Language,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
