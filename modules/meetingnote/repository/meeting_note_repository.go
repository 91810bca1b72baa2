package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"go-meeting-sync/core/database"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/meetingnote/entity"

	"github.com/google/uuid"
)

type MeetingNoteRepository struct {
	DB database.Database
}

func NewMeetingNoteRepository(db database.Database) *MeetingNoteRepository {
	return &MeetingNoteRepository{DB: db}
}

type MeetingNoteRepositoryInterface interface {
	CreateNote(ctx context.Context, note *entity.MeetingNote, items []entity.NoteItem) (*entity.MeetingNote, error)
	GetLatestNote(ctx context.Context, meetingID uuid.UUID) (*entity.MeetingNote, error)
	GetNoteItems(ctx context.Context, noteID uuid.UUID) ([]entity.NoteItem, error)
}

// CreateNote inserts the note and its items in one transaction.
func (r *MeetingNoteRepository) CreateNote(ctx context.Context, note *entity.MeetingNote, items []entity.NoteItem) (*entity.MeetingNote, error) {
	var created entity.MeetingNote
	err := r.DB.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO meeting_notes (meeting_id, summary)
			VALUES ($1, $2)
			RETURNING id, meeting_id, summary, created_at, updated_at
		`
		if err := r.DB.GetContext(ctx, &created, query, note.MeetingID, note.Summary); err != nil {
			return err
		}

		itemQuery := `
			INSERT INTO meeting_note_items (note_id, kind, content, assignee, status, deadline, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for i, it := range items {
			if err := r.DB.ExecContext(ctx, itemQuery, created.ID, it.Kind, it.Content, it.Assignee, it.Status, it.Deadline, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("MeetingNoteRepository:CreateNote", err)
		return nil, err
	}
	return &created, nil
}

func (r *MeetingNoteRepository) GetLatestNote(ctx context.Context, meetingID uuid.UUID) (*entity.MeetingNote, error) {
	query := `
		SELECT id, meeting_id, summary, created_at, updated_at
		FROM meeting_notes
		WHERE meeting_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var note entity.MeetingNote
	if err := r.DB.GetContext(ctx, &note, query, meetingID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("MeetingNoteRepository:GetLatestNote", err)
		return nil, err
	}
	return &note, nil
}

func (r *MeetingNoteRepository) GetNoteItems(ctx context.Context, noteID uuid.UUID) ([]entity.NoteItem, error) {
	query := `
		SELECT id, note_id, kind, content, assignee, status, deadline, position, created_at, updated_at
		FROM meeting_note_items
		WHERE note_id = $1
		ORDER BY position
	`
	var items []entity.NoteItem
	if err := r.DB.SelectContext(ctx, &items, query, noteID); err != nil {
		logger.Error("MeetingNoteRepository:GetNoteItems", err)
		return nil, err
	}
	return items, nil
}
