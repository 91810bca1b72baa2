package service

import (
	"context"

	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/storage"
	meetingentity "go-meeting-sync/modules/meeting/entity"
)

// contentLoader gathers the read-only collaborators for a description.
// Any of its readers may be nil; a failing reader only drops its section.
type contentLoader struct {
	transcripts TranscriptReader
	notes       NoteReader
	files       FileReader
	signer      storage.URLSigner
}

func (l *contentLoader) describe(ctx context.Context, meeting *meetingentity.Meeting) string {
	in := DescriptionInput{Meeting: meeting}

	if l.transcripts != nil {
		t, err := l.transcripts.GetLatestByMeetingID(ctx, meeting.ID)
		if err != nil {
			logger.Warn("CalendarSync:Describe:Transcript:Error", "meeting_id", meeting.ID, "error", err)
		}
		in.Transcript = t
	}

	if l.notes != nil {
		note, err := l.notes.GetLatestNote(ctx, meeting.ID)
		if err != nil {
			logger.Warn("CalendarSync:Describe:Note:Error", "meeting_id", meeting.ID, "error", err)
		}
		if note != nil {
			in.Note = note
			items, err := l.notes.GetNoteItems(ctx, note.ID)
			if err != nil {
				logger.Warn("CalendarSync:Describe:NoteItems:Error", "note_id", note.ID, "error", err)
			}
			in.Items = items
		}
	}

	if l.files != nil {
		files, err := l.files.GetFilesByMeetingID(ctx, meeting.ID)
		if err != nil {
			logger.Warn("CalendarSync:Describe:Files:Error", "meeting_id", meeting.ID, "error", err)
		}
		for _, f := range files {
			a := Attachment{File: f}
			if l.signer != nil {
				url, err := l.signer.SignedURL(ctx, f.ObjectKey)
				if err != nil {
					logger.Warn("CalendarSync:Describe:SignedURL:Error", "file_id", f.ID, "error", err)
				}
				a.URL = url
			}
			in.Files = append(in.Files, a)
		}
	}

	return BuildDescription(in)
}
