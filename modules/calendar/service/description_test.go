package service

import (
	"strings"
	"testing"
	"time"

	meetingentity "go-meeting-sync/modules/meeting/entity"
	fileentity "go-meeting-sync/modules/meetingfile/entity"
	noteentity "go-meeting-sync/modules/meetingnote/entity"
	transcriptentity "go-meeting-sync/modules/transcript/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuildDescriptionTasksAndFiles(t *testing.T) {
	due := time.Date(2025, 4, 2, 15, 0, 0, 0, time.UTC)
	in := DescriptionInput{
		Meeting: &meetingentity.Meeting{
			Title:       "Weekly Sync",
			MeetingLink: "https://zoom.us/j/42",
		},
		Note: &noteentity.MeetingNote{Summary: "Shipped the beta."},
		Items: []noteentity.NoteItem{
			{Kind: noteentity.ItemKindTask, Content: "Write release notes", Assignee: "Ana", Status: "open", Deadline: &due},
			{Kind: noteentity.ItemKindTask, Content: "Book venue"},
		},
		Files: []Attachment{{
			File: fileentity.MeetingFile{FileName: "recording.mp4", SizeBytes: 2_500_000, DurationSeconds: 90},
			URL:  "https://files.example.com/rec?sig=1",
		}},
	}

	want := strings.Join([]string{
		"Join: https://zoom.us/j/42",
		"Summary:\nShipped the beta.",
		"Action Items:\n- Write release notes (Assignee: Ana, Status: open, Due: 2025-04-02)\n- Book venue",
		"Files:\n- recording.mp4 (2.5 MB, 1m30s): https://files.example.com/rec?sig=1",
	}, "\n\n")

	got := BuildDescription(in)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Transcript:")
	assert.NotContains(t, got, "Decisions:")
	assert.Equal(t, got, BuildDescription(in))
}

func TestBuildDescriptionAllSections(t *testing.T) {
	in := DescriptionInput{
		Meeting: &meetingentity.Meeting{
			Description:    "Quarterly planning",
			OrganizerName:  "Bo",
			OrganizerEmail: "bo@example.com",
		},
		Items: []noteentity.NoteItem{
			{Kind: noteentity.ItemKindDecision, Content: "Go with plan B"},
			{Kind: noteentity.ItemKindQuestion, Content: "Budget owner?"},
		},
		Transcript: &transcriptentity.Transcript{Content: "Hello everyone"},
	}

	got := BuildDescription(in)
	assert.True(t, strings.HasPrefix(got, "Quarterly planning\n\nOrganizer: Bo <bo@example.com>"))
	assert.Contains(t, got, "Decisions:\n- Go with plan B")
	assert.Contains(t, got, "Open Questions:\n- Budget owner?")
	assert.True(t, strings.HasSuffix(got, "Transcript:\nHello everyone"))
}

func TestBuildDescriptionTruncatesTranscript(t *testing.T) {
	in := DescriptionInput{Transcript: &transcriptentity.Transcript{Content: strings.Repeat("é", 2000)}}

	got := BuildDescription(in)
	body := strings.TrimPrefix(got, "Transcript:\n")
	assert.Equal(t, transcriptExcerptRunes+1, len([]rune(body)))
	assert.True(t, strings.HasSuffix(body, "…"))
}

func TestBuildDescriptionEmpty(t *testing.T) {
	assert.Empty(t, BuildDescription(DescriptionInput{}))
}
