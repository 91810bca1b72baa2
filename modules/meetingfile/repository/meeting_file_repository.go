package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"go-meeting-sync/core/database"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/meetingfile/entity"

	"github.com/google/uuid"
)

type MeetingFileRepository struct {
	DB database.Database
}

func NewMeetingFileRepository(db database.Database) *MeetingFileRepository {
	return &MeetingFileRepository{DB: db}
}

type MeetingFileRepositoryInterface interface {
	CreateFile(ctx context.Context, f *entity.MeetingFile) (*entity.MeetingFile, error)
	UpdateFile(ctx context.Context, f *entity.MeetingFile) error
	GetFileByID(ctx context.Context, id uuid.UUID) (*entity.MeetingFile, error)
	GetFilesByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entity.MeetingFile, error)
}

const fileColumns = `id, meeting_id, file_name, object_key, content_type, size_bytes, duration_seconds, created_at, updated_at`

func (r *MeetingFileRepository) CreateFile(ctx context.Context, f *entity.MeetingFile) (*entity.MeetingFile, error) {
	query := `
		INSERT INTO meeting_files (meeting_id, file_name, object_key, content_type, size_bytes, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns

	var created entity.MeetingFile
	err := r.DB.GetContext(ctx, &created, query, f.MeetingID, f.FileName, f.ObjectKey, f.ContentType, f.SizeBytes, f.DurationSeconds)
	if err != nil {
		logger.Error("MeetingFileRepository:CreateFile", err)
		return nil, err
	}
	return &created, nil
}

func (r *MeetingFileRepository) UpdateFile(ctx context.Context, f *entity.MeetingFile) error {
	query := `
		UPDATE meeting_files
		SET file_name = $2, content_type = $3, size_bytes = $4, duration_seconds = $5, updated_at = NOW()
		WHERE id = $1
	`
	err := r.DB.ExecContext(ctx, query, f.ID, f.FileName, f.ContentType, f.SizeBytes, f.DurationSeconds)
	if err != nil {
		logger.Error("MeetingFileRepository:UpdateFile", err)
	}
	return err
}

func (r *MeetingFileRepository) GetFileByID(ctx context.Context, id uuid.UUID) (*entity.MeetingFile, error) {
	query := `SELECT ` + fileColumns + ` FROM meeting_files WHERE id = $1`

	var f entity.MeetingFile
	if err := r.DB.GetContext(ctx, &f, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("MeetingFileRepository:GetFileByID", err)
		return nil, err
	}
	return &f, nil
}

func (r *MeetingFileRepository) GetFilesByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entity.MeetingFile, error) {
	query := `SELECT ` + fileColumns + ` FROM meeting_files WHERE meeting_id = $1 ORDER BY created_at`

	var files []entity.MeetingFile
	if err := r.DB.SelectContext(ctx, &files, query, meetingID); err != nil {
		logger.Error("MeetingFileRepository:GetFilesByMeetingID", err)
		return nil, err
	}
	return files, nil
}
