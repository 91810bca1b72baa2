package service

import (
	"context"
	"strings"

	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/storage"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/meetingfile/dto"
	"go-meeting-sync/modules/meetingfile/entity"
	"go-meeting-sync/modules/meetingfile/repository"

	"github.com/google/uuid"
)

type MeetingFileService struct {
	repo      repository.MeetingFileRepositoryInterface
	meetings  meetingrepo.MeetingRepositoryInterface
	signer    storage.URLSigner
	publisher events.Publisher
}

type MeetingFileServiceInterface interface {
	AddFile(ctx context.Context, userID, meetingID uuid.UUID, req *dto.AddFileRequest) (*dto.FileResponse, *errors.AppError)
	UpdateFile(ctx context.Context, userID, meetingID, fileID uuid.UUID, req *dto.UpdateFileRequest) (*dto.FileResponse, *errors.AppError)
	ListFiles(ctx context.Context, userID, meetingID uuid.UUID) ([]dto.FileResponse, *errors.AppError)
}

// NewMeetingFileService builds the service. signer may be nil when no
// object storage is configured; responses then carry no download URL.
func NewMeetingFileService(
	repo repository.MeetingFileRepositoryInterface,
	meetings meetingrepo.MeetingRepositoryInterface,
	signer storage.URLSigner,
	publisher events.Publisher,
) MeetingFileServiceInterface {
	return &MeetingFileService{repo: repo, meetings: meetings, signer: signer, publisher: publisher}
}

func (s *MeetingFileService) checkOwner(ctx context.Context, userID, meetingID uuid.UUID) *errors.AppError {
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

func (s *MeetingFileService) signedURL(ctx context.Context, f *entity.MeetingFile) string {
	if s.signer == nil {
		return ""
	}
	url, err := s.signer.SignedURL(ctx, f.ObjectKey)
	if err != nil {
		logger.Warn("MeetingFileService:SignedURL:Error", "file_id", f.ID, "error", err)
		return ""
	}
	return url
}

func (s *MeetingFileService) fire(ctx context.Context, name events.Name, fileID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if failed := s.publisher.Fire(ctx, name, fileID); failed > 0 {
		logger.Warn("MeetingFileService:Fire:HandlersFailed", "event", name, "file_id", fileID, "failed", failed)
	}
}

func (s *MeetingFileService) AddFile(ctx context.Context, userID, meetingID uuid.UUID, req *dto.AddFileRequest) (*dto.FileResponse, *errors.AppError) {
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.ObjectKey) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "File name and object key are required", nil)
	}
	if req.SizeBytes < 0 || req.DurationSeconds < 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Size and duration must not be negative", nil)
	}
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}

	created, err := s.repo.CreateFile(ctx, &entity.MeetingFile{
		MeetingID:       meetingID,
		FileName:        req.FileName,
		ObjectKey:       req.ObjectKey,
		ContentType:     req.ContentType,
		SizeBytes:       req.SizeBytes,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save file", err)
	}

	s.fire(ctx, events.MeetingFileCreated, created.ID)

	return dto.ToFileResponse(created, s.signedURL(ctx, created)), nil
}

func (s *MeetingFileService) UpdateFile(ctx context.Context, userID, meetingID, fileID uuid.UUID, req *dto.UpdateFileRequest) (*dto.FileResponse, *errors.AppError) {
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}

	f, err := s.repo.GetFileByID(ctx, fileID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get file", err)
	}
	if f == nil || f.MeetingID != meetingID {
		return nil, errors.NewAppError(errors.ErrNotFound, "File not found", nil)
	}

	if req.FileName != nil && strings.TrimSpace(*req.FileName) != "" {
		f.FileName = *req.FileName
	}
	if req.ContentType != nil {
		f.ContentType = *req.ContentType
	}
	if req.SizeBytes != nil && *req.SizeBytes >= 0 {
		f.SizeBytes = *req.SizeBytes
	}
	if req.DurationSeconds != nil && *req.DurationSeconds >= 0 {
		f.DurationSeconds = *req.DurationSeconds
	}

	if err := s.repo.UpdateFile(ctx, f); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update file", err)
	}

	s.fire(ctx, events.MeetingFileUpdated, f.ID)

	return dto.ToFileResponse(f, s.signedURL(ctx, f)), nil
}

func (s *MeetingFileService) ListFiles(ctx context.Context, userID, meetingID uuid.UUID) ([]dto.FileResponse, *errors.AppError) {
	if appErr := s.checkOwner(ctx, userID, meetingID); appErr != nil {
		return nil, appErr
	}

	files, err := s.repo.GetFilesByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get files", err)
	}

	result := make([]dto.FileResponse, 0, len(files))
	for i := range files {
		result = append(result, *dto.ToFileResponse(&files[i], s.signedURL(ctx, &files[i])))
	}
	return result, nil
}
