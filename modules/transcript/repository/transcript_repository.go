package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"go-meeting-sync/core/database"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/transcript/entity"

	"github.com/google/uuid"
)

type TranscriptRepository struct {
	DB database.Database
}

func NewTranscriptRepository(db database.Database) *TranscriptRepository {
	return &TranscriptRepository{DB: db}
}

type TranscriptRepositoryInterface interface {
	CreateTranscript(ctx context.Context, t *entity.Transcript) (*entity.Transcript, error)
	UpdateTranscript(ctx context.Context, t *entity.Transcript) error
	GetTranscriptByID(ctx context.Context, id uuid.UUID) (*entity.Transcript, error)
	GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entity.Transcript, error)
}

func (r *TranscriptRepository) CreateTranscript(ctx context.Context, t *entity.Transcript) (*entity.Transcript, error) {
	query := `
		INSERT INTO transcripts (meeting_id, content, language)
		VALUES ($1, $2, $3)
		RETURNING id, meeting_id, content, language, created_at, updated_at
	`
	var created entity.Transcript
	if err := r.DB.GetContext(ctx, &created, query, t.MeetingID, t.Content, t.Language); err != nil {
		logger.Error("TranscriptRepository:CreateTranscript", err)
		return nil, err
	}
	return &created, nil
}

func (r *TranscriptRepository) UpdateTranscript(ctx context.Context, t *entity.Transcript) error {
	query := `UPDATE transcripts SET content = $2, language = $3, updated_at = NOW() WHERE id = $1`
	err := r.DB.ExecContext(ctx, query, t.ID, t.Content, t.Language)
	if err != nil {
		logger.Error("TranscriptRepository:UpdateTranscript", err)
	}
	return err
}

func (r *TranscriptRepository) GetTranscriptByID(ctx context.Context, id uuid.UUID) (*entity.Transcript, error) {
	query := `
		SELECT id, meeting_id, content, language, created_at, updated_at
		FROM transcripts
		WHERE id = $1
	`
	return r.getOne(ctx, "GetTranscriptByID", query, id)
}

func (r *TranscriptRepository) GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entity.Transcript, error) {
	query := `
		SELECT id, meeting_id, content, language, created_at, updated_at
		FROM transcripts
		WHERE meeting_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, "GetLatestByMeetingID", query, meetingID)
}

func (r *TranscriptRepository) getOne(ctx context.Context, op, query string, arg any) (*entity.Transcript, error) {
	var t entity.Transcript
	if err := r.DB.GetContext(ctx, &t, query, arg); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("TranscriptRepository:"+op, err)
		return nil, err
	}
	return &t, nil
}
