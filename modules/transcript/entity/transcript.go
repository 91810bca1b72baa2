package entity

import (
	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
)

type Transcript struct {
	entity.BaseEntity
	MeetingID uuid.UUID `db:"meeting_id" json:"meeting_id"`
	Content   string    `db:"content" json:"content"`
	Language  string    `db:"language" json:"language"`
}

func (Transcript) TableName() string {
	return "transcripts"
}
