package dto

import (
	"time"

	"go-meeting-sync/modules/meetingfile/entity"

	"github.com/google/uuid"
)

// AddFileRequest registers an object already uploaded to storage.
type AddFileRequest struct {
	FileName        string `json:"file_name"`
	ObjectKey       string `json:"object_key"`
	ContentType     string `json:"content_type"`
	SizeBytes       int64  `json:"size_bytes"`
	DurationSeconds int    `json:"duration_seconds"`
}

type UpdateFileRequest struct {
	FileName        *string `json:"file_name"`
	ContentType     *string `json:"content_type"`
	SizeBytes       *int64  `json:"size_bytes"`
	DurationSeconds *int    `json:"duration_seconds"`
}

type FileResponse struct {
	ID              uuid.UUID `json:"id"`
	MeetingID       uuid.UUID `json:"meeting_id"`
	FileName        string    `json:"file_name"`
	ContentType     string    `json:"content_type,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	DownloadURL     string    `json:"download_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func ToFileResponse(f *entity.MeetingFile, downloadURL string) *FileResponse {
	return &FileResponse{
		ID:              f.ID,
		MeetingID:       f.MeetingID,
		FileName:        f.FileName,
		ContentType:     f.ContentType,
		SizeBytes:       f.SizeBytes,
		DurationSeconds: f.DurationSeconds,
		DownloadURL:     downloadURL,
		CreatedAt:       f.CreatedAt,
	}
}
