package service

import (
	"context"
	"strings"
	"time"

	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/meeting/dto"
	"go-meeting-sync/modules/meeting/entity"
	"go-meeting-sync/modules/meeting/repository"

	"github.com/google/uuid"
)

// MeetingService handles meeting business logic
type MeetingService struct {
	repo      repository.MeetingRepositoryInterface
	publisher events.Publisher
}

// MeetingServiceInterface defines the service contract
type MeetingServiceInterface interface {
	CreateMeeting(ctx context.Context, userID uuid.UUID, req *dto.CreateMeetingRequest) (*dto.MeetingResponse, *errors.AppError)
	GetMeeting(ctx context.Context, userID, meetingID uuid.UUID) (*dto.MeetingResponse, *errors.AppError)
	GetMyMeetings(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]dto.MeetingResponse, *errors.AppError)
	UpdateMeeting(ctx context.Context, userID, meetingID uuid.UUID, req *dto.UpdateMeetingRequest) (*dto.MeetingResponse, *errors.AppError)
	DeleteMeeting(ctx context.Context, userID, meetingID uuid.UUID) *errors.AppError
}

// NewMeetingService creates a new meeting service. publisher may be nil.
func NewMeetingService(repo repository.MeetingRepositoryInterface, publisher events.Publisher) MeetingServiceInterface {
	return &MeetingService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *MeetingService) fire(ctx context.Context, name events.Name, id uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if failed := s.publisher.Fire(ctx, name, id); failed > 0 {
		logger.Warn("MeetingService:Fire:HandlersFailed", "event", name, "meeting_id", id, "failed", failed)
	}
}

func (s *MeetingService) CreateMeeting(ctx context.Context, userID uuid.UUID, req *dto.CreateMeetingRequest) (*dto.MeetingResponse, *errors.AppError) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Title is required", nil)
	}
	if req.StartTime.IsZero() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Start time is required", nil)
	}
	if req.DurationMinutes < 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Duration must not be negative", nil)
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown timezone", err)
		}
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = entity.DefaultDurationMinutes
	}

	meeting := &entity.Meeting{
		UserID:          userID,
		Title:           title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		Timezone:        req.Timezone,
		MeetingLink:     req.MeetingLink,
		Platform:        req.Platform,
		Location:        req.Location,
		OrganizerName:   req.OrganizerName,
		OrganizerEmail:  req.OrganizerEmail,
		IsRecurring:     req.IsRecurring,
		MeetingType:     req.MeetingType,
		Priority:        strings.ToLower(req.Priority),
	}

	created, err := s.repo.CreateMeeting(ctx, meeting)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create meeting", err)
	}
	logger.Info("MeetingService:CreateMeeting:Created", "meeting_id", created.ID, "user_id", userID)

	s.fire(ctx, events.MeetingCreated, created.ID)

	return dto.ToMeetingResponse(created), nil
}

func (s *MeetingService) getOwned(ctx context.Context, userID, meetingID uuid.UUID) (*entity.Meeting, *errors.AppError) {
	meeting, err := s.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get meeting", err)
	}
	if meeting == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Meeting not found", nil)
	}
	if meeting.UserID != userID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Not authorized", nil)
	}
	return meeting, nil
}

func (s *MeetingService) GetMeeting(ctx context.Context, userID, meetingID uuid.UUID) (*dto.MeetingResponse, *errors.AppError) {
	meeting, appErr := s.getOwned(ctx, userID, meetingID)
	if appErr != nil {
		return nil, appErr
	}
	return dto.ToMeetingResponse(meeting), nil
}

func (s *MeetingService) GetMyMeetings(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]dto.MeetingResponse, *errors.AppError) {
	meetings, err := s.repo.GetMeetingsByUserID(ctx, userID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get meetings", err)
	}

	result := make([]dto.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		result = append(result, *dto.ToMeetingResponse(&meetings[i]))
	}
	return result, nil
}

func (s *MeetingService) UpdateMeeting(ctx context.Context, userID, meetingID uuid.UUID, req *dto.UpdateMeetingRequest) (*dto.MeetingResponse, *errors.AppError) {
	meeting, appErr := s.getOwned(ctx, userID, meetingID)
	if appErr != nil {
		return nil, appErr
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Title must not be empty", nil)
		}
		meeting.Title = title
	}
	if req.Description != nil {
		meeting.Description = *req.Description
	}
	if req.StartTime != nil {
		meeting.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Duration must be positive", nil)
		}
		meeting.DurationMinutes = *req.DurationMinutes
	}
	if req.Timezone != nil {
		if *req.Timezone != "" {
			if _, err := time.LoadLocation(*req.Timezone); err != nil {
				return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown timezone", err)
			}
		}
		meeting.Timezone = *req.Timezone
	}
	if req.MeetingLink != nil {
		meeting.MeetingLink = *req.MeetingLink
	}
	if req.Platform != nil {
		meeting.Platform = *req.Platform
	}
	if req.Location != nil {
		meeting.Location = *req.Location
	}
	if req.IsRecurring != nil {
		meeting.IsRecurring = *req.IsRecurring
	}
	if req.MeetingType != nil {
		meeting.MeetingType = *req.MeetingType
	}
	if req.Priority != nil {
		meeting.Priority = strings.ToLower(*req.Priority)
	}

	if err := s.repo.UpdateMeeting(ctx, meeting); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update meeting", err)
	}

	s.fire(ctx, events.MeetingUpdated, meeting.ID)

	return dto.ToMeetingResponse(meeting), nil
}

func (s *MeetingService) DeleteMeeting(ctx context.Context, userID, meetingID uuid.UUID) *errors.AppError {
	meeting, appErr := s.getOwned(ctx, userID, meetingID)
	if appErr != nil {
		return appErr
	}

	if err := s.repo.DeleteMeeting(ctx, meeting.ID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete meeting", err)
	}
	logger.Info("MeetingService:DeleteMeeting:Deleted", "meeting_id", meeting.ID)

	s.fire(ctx, events.MeetingDeleted, meeting.ID)
	return nil
}
