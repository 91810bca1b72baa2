package entity

import (
	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
)

type MeetingFile struct {
	entity.BaseEntity
	MeetingID       uuid.UUID `db:"meeting_id" json:"meeting_id"`
	FileName        string    `db:"file_name" json:"file_name"`
	ObjectKey       string    `db:"object_key" json:"object_key"`
	ContentType     string    `db:"content_type" json:"content_type"`
	SizeBytes       int64     `db:"size_bytes" json:"size_bytes"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
}

func (MeetingFile) TableName() string {
	return "meeting_files"
}
