package service

import (
	"context"
	"strings"

	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/logger"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/transcript/dto"
	"go-meeting-sync/modules/transcript/entity"
	"go-meeting-sync/modules/transcript/repository"

	"github.com/google/uuid"
)

type TranscriptService struct {
	repo      repository.TranscriptRepositoryInterface
	meetings  meetingrepo.MeetingRepositoryInterface
	publisher events.Publisher
}

type TranscriptServiceInterface interface {
	SaveTranscript(ctx context.Context, userID, meetingID uuid.UUID, req *dto.SaveTranscriptRequest) (*dto.TranscriptResponse, *errors.AppError)
	GetTranscript(ctx context.Context, userID, meetingID uuid.UUID) (*dto.TranscriptResponse, *errors.AppError)
}

func NewTranscriptService(repo repository.TranscriptRepositoryInterface, meetings meetingrepo.MeetingRepositoryInterface, publisher events.Publisher) TranscriptServiceInterface {
	return &TranscriptService{repo: repo, meetings: meetings, publisher: publisher}
}

func (s *TranscriptService) checkOwner(ctx context.Context, userID, meetingID uuid.UUID) *errors.AppError {
	meeting, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to get meeting", err)
	}
	if meeting == nil {
		return errors.NewAppError(errors.ErrNotFound, "Meeting not found", nil)
	}
	if meeting.UserID != userID {
		return errors.NewAppError(errors.ErrForbidden, "Not authorized", nil)
	}
	return nil
}

// SaveTranscript replaces the meeting's transcript, creating it on first save.
func (s *TranscriptService) SaveTranscript(ctx context.Context, userID, meetingID uuid.UUID, req *dto.SaveTranscriptRequest) (*dto.TranscriptResponse, *errors.AppError) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Content is required", nil)
	}
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetLatestByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get transcript", err)
	}

	var (
		saved *entity.Transcript
		event events.Name
	)
	if existing == nil {
		saved, err = s.repo.CreateTranscript(ctx, &entity.Transcript{
			MeetingID: meetingID,
			Content:   req.Content,
			Language:  req.Language,
		})
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save transcript", err)
		}
		event = events.TranscriptCreated
	} else {
		existing.Content = req.Content
		existing.Language = req.Language
		if err := s.repo.UpdateTranscript(ctx, existing); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save transcript", err)
		}
		saved = existing
		event = events.TranscriptUpdated
	}

	if s.publisher != nil {
		if failed := s.publisher.Fire(ctx, event, saved.ID); failed > 0 {
			logger.Warn("TranscriptService:SaveTranscript:HandlersFailed", "transcript_id", saved.ID, "failed", failed)
		}
	}

	return dto.ToTranscriptResponse(saved), nil
}

func (s *TranscriptService) GetTranscript(ctx context.Context, userID, meetingID uuid.UUID) (*dto.TranscriptResponse, *errors.AppError) {
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}
	t, err := s.repo.GetLatestByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get transcript", err)
	}
	if t == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Transcript not found", nil)
	}
	return dto.ToTranscriptResponse(t), nil
}
