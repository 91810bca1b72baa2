package entity

import (
	"time"

	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
)

// Item kinds extracted from a meeting.
const (
	ItemKindDecision = "decision"
	ItemKindTask     = "task"
	ItemKindQuestion = "question"
)

type MeetingNote struct {
	entity.BaseEntity
	MeetingID uuid.UUID `db:"meeting_id" json:"meeting_id"`
	Summary   string    `db:"summary" json:"summary"`
}

func (MeetingNote) TableName() string {
	return "meeting_notes"
}

type NoteItem struct {
	entity.BaseEntity
	NoteID   uuid.UUID  `db:"note_id" json:"note_id"`
	Kind     string     `db:"kind" json:"kind"`
	Content  string     `db:"content" json:"content"`
	Assignee string     `db:"assignee" json:"assignee"`
	Status   string     `db:"status" json:"status"`
	Deadline *time.Time `db:"deadline" json:"deadline"`
	Position int        `db:"position" json:"position"`
}

func (NoteItem) TableName() string {
	return "meeting_note_items"
}

func ValidKind(kind string) bool {
	switch kind {
	case ItemKindDecision, ItemKindTask, ItemKindQuestion:
		return true
	}
	return false
}
