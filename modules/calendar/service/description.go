package service

import (
	"fmt"
	"strings"
	"time"

	meetingentity "go-meeting-sync/modules/meeting/entity"
	fileentity "go-meeting-sync/modules/meetingfile/entity"
	noteentity "go-meeting-sync/modules/meetingnote/entity"
	transcriptentity "go-meeting-sync/modules/transcript/entity"

	"github.com/dustin/go-humanize"
)

const transcriptExcerptRunes = 1500

// Attachment is a meeting file with its pre-signed download URL.
type Attachment struct {
	File fileentity.MeetingFile
	URL  string
}

// DescriptionInput holds everything rendered into an event description.
// Nil or empty fields produce no section.
type DescriptionInput struct {
	Meeting    *meetingentity.Meeting
	Transcript *transcriptentity.Transcript
	Note       *noteentity.MeetingNote
	Items      []noteentity.NoteItem
	Files      []Attachment
}

// BuildDescription renders the event description. It has no side effects
// and returns the same text for the same input.
func BuildDescription(in DescriptionInput) string {
	var sections []string

	if m := in.Meeting; m != nil {
		if d := strings.TrimSpace(m.Description); d != "" {
			sections = append(sections, d)
		}
		if m.MeetingLink != "" {
			sections = append(sections, "Join: "+m.MeetingLink)
		}
		if m.OrganizerName != "" || m.OrganizerEmail != "" {
			sections = append(sections, "Organizer: "+organizer(m.OrganizerName, m.OrganizerEmail))
		}
	}

	if in.Note != nil {
		if s := strings.TrimSpace(in.Note.Summary); s != "" {
			sections = append(sections, "Summary:\n"+s)
		}
	}

	var decisions, tasks, questions []string
	for _, it := range in.Items {
		switch it.Kind {
		case noteentity.ItemKindDecision:
			decisions = append(decisions, "- "+it.Content)
		case noteentity.ItemKindTask:
			tasks = append(tasks, "- "+it.Content+taskDetails(it))
		case noteentity.ItemKindQuestion:
			questions = append(questions, "- "+it.Content)
		}
	}
	if len(decisions) > 0 {
		sections = append(sections, "Decisions:\n"+strings.Join(decisions, "\n"))
	}
	if len(tasks) > 0 {
		sections = append(sections, "Action Items:\n"+strings.Join(tasks, "\n"))
	}
	if len(questions) > 0 {
		sections = append(sections, "Open Questions:\n"+strings.Join(questions, "\n"))
	}

	if in.Transcript != nil {
		if t := strings.TrimSpace(in.Transcript.Content); t != "" {
			sections = append(sections, "Transcript:\n"+truncateRunes(t, transcriptExcerptRunes))
		}
	}

	if len(in.Files) > 0 {
		lines := make([]string, 0, len(in.Files))
		for _, a := range in.Files {
			lines = append(lines, fileLine(a))
		}
		sections = append(sections, "Files:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

func organizer(name, email string) string {
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	default:
		return email
	}
}

func taskDetails(it noteentity.NoteItem) string {
	var parts []string
	if it.Assignee != "" {
		parts = append(parts, "Assignee: "+it.Assignee)
	}
	if it.Status != "" {
		parts = append(parts, "Status: "+it.Status)
	}
	if it.Deadline != nil {
		parts = append(parts, "Due: "+it.Deadline.UTC().Format("2006-01-02"))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func fileLine(a Attachment) string {
	meta := []string{humanize.Bytes(uint64(max(a.File.SizeBytes, 0)))}
	if a.File.DurationSeconds > 0 {
		meta = append(meta, (time.Duration(a.File.DurationSeconds) * time.Second).String())
	}
	line := fmt.Sprintf("- %s (%s)", a.File.FileName, strings.Join(meta, ", "))
	if a.URL != "" {
		line += ": " + a.URL
	}
	return line
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
