package dto

import (
	"time"

	"go-meeting-sync/modules/meetingnote/entity"

	"github.com/google/uuid"
)

type NoteItemRequest struct {
	Kind     string     `json:"kind"`
	Content  string     `json:"content"`
	Assignee string     `json:"assignee"`
	Status   string     `json:"status"`
	Deadline *time.Time `json:"deadline"`
}

type CreateNoteRequest struct {
	Summary string            `json:"summary"`
	Items   []NoteItemRequest `json:"items"`
}

type NoteItemResponse struct {
	ID       uuid.UUID  `json:"id"`
	Kind     string     `json:"kind"`
	Content  string     `json:"content"`
	Assignee string     `json:"assignee,omitempty"`
	Status   string     `json:"status,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type NoteResponse struct {
	ID        uuid.UUID          `json:"id"`
	MeetingID uuid.UUID          `json:"meeting_id"`
	Summary   string             `json:"summary"`
	Items     []NoteItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
}

func ToNoteResponse(note *entity.MeetingNote, items []entity.NoteItem) *NoteResponse {
	resp := &NoteResponse{
		ID:        note.ID,
		MeetingID: note.MeetingID,
		Summary:   note.Summary,
		Items:     make([]NoteItemResponse, 0, len(items)),
		CreatedAt: note.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, NoteItemResponse{
			ID:       it.ID,
			Kind:     it.Kind,
			Content:  it.Content,
			Assignee: it.Assignee,
			Status:   it.Status,
			Deadline: it.Deadline,
		})
	}
	return resp
}
