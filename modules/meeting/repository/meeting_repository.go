package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go-meeting-sync/core/database"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/meeting/entity"

	"github.com/google/uuid"
)

type MeetingRepository struct {
	DB database.Database
}

func NewMeetingRepository(db database.Database) *MeetingRepository {
	return &MeetingRepository{DB: db}
}

type MeetingRepositoryInterface interface {
	CreateMeeting(ctx context.Context, meeting *entity.Meeting) (*entity.Meeting, error)
	GetMeetingByID(ctx context.Context, id uuid.UUID) (*entity.Meeting, error)
	GetMeetingsByUserID(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]entity.Meeting, error)
	UpdateMeeting(ctx context.Context, meeting *entity.Meeting) error
	UpdateSyncedFields(ctx context.Context, meeting *entity.Meeting) error
	DeleteMeeting(ctx context.Context, id uuid.UUID) error
}

const meetingColumns = `
	id, user_id, title, description, start_time, duration_minutes, timezone, meeting_link, platform,
	location, organizer_name, organizer_email, is_recurring, meeting_type, priority,
	created_at, updated_at, deleted_at`

func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting *entity.Meeting) (*entity.Meeting, error) {
	query := `
		INSERT INTO meetings (user_id, title, description, start_time, duration_minutes, timezone, meeting_link,
			platform, location, organizer_name, organizer_email, is_recurring, meeting_type, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING` + meetingColumns

	var created entity.Meeting
	err := r.DB.GetContext(ctx, &created, query,
		meeting.UserID, meeting.Title, meeting.Description, meeting.StartTime, meeting.DurationMinutes,
		meeting.Timezone, meeting.MeetingLink, meeting.Platform, meeting.Location, meeting.OrganizerName,
		meeting.OrganizerEmail, meeting.IsRecurring, meeting.MeetingType, meeting.Priority,
	)
	if err != nil {
		logger.Error("MeetingRepository:CreateMeeting", err)
		return nil, err
	}
	return &created, nil
}

// GetMeetingByID returns nil for unknown or deleted meetings.
func (r *MeetingRepository) GetMeetingByID(ctx context.Context, id uuid.UUID) (*entity.Meeting, error) {
	query := `SELECT` + meetingColumns + `
		FROM meetings
		WHERE id = $1 AND deleted_at IS NULL`

	var meeting entity.Meeting
	err := r.DB.GetContext(ctx, &meeting, query, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("MeetingRepository:GetMeetingByID", err)
		return nil, err
	}
	return &meeting, nil
}

func (r *MeetingRepository) GetMeetingsByUserID(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]entity.Meeting, error) {
	query := `SELECT` + meetingColumns + `
		FROM meetings
		WHERE user_id = $1 AND deleted_at IS NULL
			AND ($2::timestamptz IS NULL OR start_time >= $2)
			AND ($3::timestamptz IS NULL OR start_time < $3)
		ORDER BY start_time`

	var meetings []entity.Meeting
	if err := r.DB.SelectContext(ctx, &meetings, query, userID, from, to); err != nil {
		logger.Error("MeetingRepository:GetMeetingsByUserID", err)
		return nil, err
	}
	return meetings, nil
}

func (r *MeetingRepository) UpdateMeeting(ctx context.Context, meeting *entity.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, description = $3, start_time = $4, duration_minutes = $5, timezone = $6,
			meeting_link = $7, platform = $8, location = $9, is_recurring = $10, meeting_type = $11,
			priority = $12, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	err := r.DB.ExecContext(ctx, query,
		meeting.ID, meeting.Title, meeting.Description, meeting.StartTime, meeting.DurationMinutes,
		meeting.Timezone, meeting.MeetingLink, meeting.Platform, meeting.Location, meeting.IsRecurring,
		meeting.MeetingType, meeting.Priority,
	)
	if err != nil {
		logger.Error("MeetingRepository:UpdateMeeting", err)
	}
	return err
}

// UpdateSyncedFields writes the subset a calendar import may change.
func (r *MeetingRepository) UpdateSyncedFields(ctx context.Context, meeting *entity.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, start_time = $3, meeting_link = $4, platform = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	err := r.DB.ExecContext(ctx, query, meeting.ID, meeting.Title, meeting.StartTime, meeting.MeetingLink, meeting.Platform)
	if err != nil {
		logger.Error("MeetingRepository:UpdateSyncedFields", err)
	}
	return err
}

func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE meetings SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("MeetingRepository:DeleteMeeting", err)
	}
	return err
}
