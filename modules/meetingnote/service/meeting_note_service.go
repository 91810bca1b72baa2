package service

import (
	"context"
	"fmt"
	"strings"

	"go-meeting-sync/core/errors"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/meetingnote/dto"
	"go-meeting-sync/modules/meetingnote/entity"
	"go-meeting-sync/modules/meetingnote/repository"

	"github.com/google/uuid"
)

// MeetingNoteService stores notes produced for a meeting. Saving a note does
// not fire a calendar trigger; the next transcript, file or meeting update
// carries it into the event description.
type MeetingNoteService struct {
	repo     repository.MeetingNoteRepositoryInterface
	meetings meetingrepo.MeetingRepositoryInterface
}

type MeetingNoteServiceInterface interface {
	CreateNote(ctx context.Context, userID, meetingID uuid.UUID, req *dto.CreateNoteRequest) (*dto.NoteResponse, *errors.AppError)
	GetLatestNote(ctx context.Context, userID, meetingID uuid.UUID) (*dto.NoteResponse, *errors.AppError)
}

func NewMeetingNoteService(repo repository.MeetingNoteRepositoryInterface, meetings meetingrepo.MeetingRepositoryInterface) MeetingNoteServiceInterface {
	return &MeetingNoteService{repo: repo, meetings: meetings}
}

func (s *MeetingNoteService) checkOwner(ctx context.Context, userID, meetingID uuid.UUID) *errors.AppError {
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

func (s *MeetingNoteService) CreateNote(ctx context.Context, userID, meetingID uuid.UUID, req *dto.CreateNoteRequest) (*dto.NoteResponse, *errors.AppError) {
	items := make([]entity.NoteItem, 0, len(req.Items))
	for i, it := range req.Items {
		kind := strings.ToLower(strings.TrimSpace(it.Kind))
		if !entity.ValidKind(kind) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("Item %d has unknown kind %q", i, it.Kind), nil)
		}
		if strings.TrimSpace(it.Content) == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("Item %d has no content", i), nil)
		}
		items = append(items, entity.NoteItem{
			Kind:     kind,
			Content:  it.Content,
			Assignee: it.Assignee,
			Status:   it.Status,
			Deadline: it.Deadline,
			Position: i,
		})
	}
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}

	note, err := s.repo.CreateNote(ctx, &entity.MeetingNote{MeetingID: meetingID, Summary: req.Summary}, items)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save note", err)
	}
	return dto.ToNoteResponse(note, items), nil
}

func (s *MeetingNoteService) GetLatestNote(ctx context.Context, userID, meetingID uuid.UUID) (*dto.NoteResponse, *errors.AppError) {
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}
	note, err := s.repo.GetLatestNote(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get note", err)
	}
	if note == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Note not found", nil)
	}
	items, err := s.repo.GetNoteItems(ctx, note.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get note items", err)
	}
	return dto.ToNoteResponse(note, items), nil
}
