package service

import (
	"context"

	"go-meeting-sync/modules/calendar/provider"
	meetingentity "go-meeting-sync/modules/meeting/entity"
	fileentity "go-meeting-sync/modules/meetingfile/entity"
	noteentity "go-meeting-sync/modules/meetingnote/entity"
	transcriptentity "go-meeting-sync/modules/transcript/entity"

	"github.com/google/uuid"
)

// MeetingStore is the part of the meeting repository the sync engines use.
// Reverse sync writes through it directly so imports do not fire
// meeting_created back into forward sync.
type MeetingStore interface {
	GetMeetingByID(ctx context.Context, id uuid.UUID) (*meetingentity.Meeting, error)
	CreateMeeting(ctx context.Context, meeting *meetingentity.Meeting) (*meetingentity.Meeting, error)
	UpdateSyncedFields(ctx context.Context, meeting *meetingentity.Meeting) error
}

type TranscriptReader interface {
	GetTranscriptByID(ctx context.Context, id uuid.UUID) (*transcriptentity.Transcript, error)
	GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*transcriptentity.Transcript, error)
}

type NoteReader interface {
	GetLatestNote(ctx context.Context, meetingID uuid.UUID) (*noteentity.MeetingNote, error)
	GetNoteItems(ctx context.Context, noteID uuid.UUID) ([]noteentity.NoteItem, error)
}

type FileReader interface {
	GetFileByID(ctx context.Context, id uuid.UUID) (*fileentity.MeetingFile, error)
	GetFilesByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]fileentity.MeetingFile, error)
}

// ProviderFactory builds a calendar client for one credential.
type ProviderFactory interface {
	New(ctx context.Context, cred provider.Credential, calendarID string, saver provider.TokenSaver) (provider.Calendar, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
