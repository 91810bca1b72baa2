package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	coreentity "go-meeting-sync/core/entity"
	"go-meeting-sync/core/cache"
	"go-meeting-sync/core/config"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/events"
	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/provider"
	meetingentity "go-meeting-sync/modules/meeting/entity"
	fileentity "go-meeting-sync/modules/meetingfile/entity"
	noteentity "go-meeting-sync/modules/meetingnote/entity"
	transcriptentity "go-meeting-sync/modules/transcript/entity"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

const fakeMeetLink = "https://meet.google.com/abc-defg-hij"

// fakeCalendar is an in-memory provider calendar.
type fakeCalendar struct {
	mu        sync.Mutex
	events    map[string]*calendar.Event
	nextID    int
	listErr   error
	deleteErr error

	lists   []int64
	created []*calendar.Event
	updated []string
	deleted []string
}

func newFakeCalendar(seed ...*calendar.Event) *fakeCalendar {
	f := &fakeCalendar{events: make(map[string]*calendar.Event)}
	for _, ev := range seed {
		f.events[ev.Id] = ev
	}
	return f
}

func (f *fakeCalendar) ListEvents(_ context.Context, start, end time.Time, maxResults int64) ([]*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, maxResults)
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []*calendar.Event
	for _, ev := range f.events {
		if t, ok := parseEventTime(ev.Start, time.UTC); ok && (t.Before(start) || !t.Before(end)) {
			continue
		}
		cp := *ev
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (f *fakeCalendar) GetEvent(_ context.Context, id string) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, body *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ev := *body
	ev.Id = fmt.Sprintf("evt-%d", f.nextID)
	ev.HtmlLink = "https://calendar.google.com/event?eid=" + ev.Id
	if body.ConferenceData != nil && body.ConferenceData.CreateRequest != nil {
		ev.HangoutLink = fakeMeetLink
	}
	f.events[ev.Id] = &ev
	f.created = append(f.created, body)
	cp := ev
	return &cp, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, id string, body *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "update event: event not found", nil)
	}
	ev := *body
	ev.Id = id
	ev.HtmlLink = "https://calendar.google.com/event?eid=" + id
	f.events[id] = &ev
	f.updated = append(f.updated, id)
	cp := ev
	return &cp, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.events, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCalendar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeFactory struct {
	cal   *fakeCalendar
	err   error
	calls int
}

func (f *fakeFactory) New(context.Context, provider.Credential, string, provider.TokenSaver) (provider.Calendar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cal, nil
}

// memCalendarRepo enforces the same unique rules as the database indexes.
type memCalendarRepo struct {
	mu           sync.Mutex
	integrations map[uuid.UUID]*entity.CalendarIntegration
	events       map[uuid.UUID]*entity.CalendarEvent
	seq          time.Time
}

func newMemCalendarRepo() *memCalendarRepo {
	return &memCalendarRepo{
		integrations: make(map[uuid.UUID]*entity.CalendarIntegration),
		events:       make(map[uuid.UUID]*entity.CalendarEvent),
		seq:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memCalendarRepo) tick() time.Time {
	r.seq = r.seq.Add(time.Second)
	return r.seq
}

func (r *memCalendarRepo) GetIntegration(_ context.Context, userID uuid.UUID, providerName string) (*entity.CalendarIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, integ := range r.integrations {
		if integ.UserID == userID && integ.Provider == providerName && !integ.IsDeleted {
			cp := *integ
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCalendarRepo) GetIntegrationByID(_ context.Context, id uuid.UUID) (*entity.CalendarIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	integ, ok := r.integrations[id]
	if !ok {
		return nil, nil
	}
	cp := *integ
	return &cp, nil
}

func (r *memCalendarRepo) ListIntegrationsByUser(_ context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarIntegration
	for _, integ := range r.integrations {
		if integ.UserID == userID && !integ.IsDeleted {
			out = append(out, *integ)
		}
	}
	return out, nil
}

func (r *memCalendarRepo) ListActiveIntegrations(_ context.Context, providerName string) ([]entity.CalendarIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarIntegration
	for _, integ := range r.integrations {
		if integ.Provider == providerName && !integ.IsDeleted {
			out = append(out, *integ)
		}
	}
	return out, nil
}

func (r *memCalendarRepo) CreateIntegration(_ context.Context, integ *entity.CalendarIntegration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.integrations {
		if other.UserID == integ.UserID && other.Provider == integ.Provider && !other.IsDeleted {
			return errors.NewAppError(errors.ErrAlreadyExists, "calendar integration already exists", nil)
		}
	}
	integ.ID = uuid.New()
	integ.CreatedAt = r.tick()
	cp := *integ
	r.integrations[integ.ID] = &cp
	return nil
}

func (r *memCalendarRepo) UpdateIntegration(_ context.Context, integ *entity.CalendarIntegration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *integ
	r.integrations[integ.ID] = &cp
	return nil
}

func (r *memCalendarRepo) UpdateIntegrationTokens(_ context.Context, id uuid.UUID, access, refresh string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	integ := r.integrations[id]
	integ.AccessToken, integ.RefreshToken, integ.TokenExpiresAt = access, refresh, expiresAt
	return nil
}

func (r *memCalendarRepo) SoftDeleteIntegration(_ context.Context, userID uuid.UUID, providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, integ := range r.integrations {
		if integ.UserID == userID && integ.Provider == providerName {
			integ.IsDeleted = true
		}
	}
	return nil
}

func (r *memCalendarRepo) AdoptEvents(_ context.Context, integ *entity.CalendarIntegration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.active() {
		old := r.integrations[ev.IntegrationID]
		if old != nil && old.IsDeleted && old.UserID == integ.UserID && old.Provider == integ.Provider {
			ev.IntegrationID = integ.ID
		}
	}
	return nil
}

func (r *memCalendarRepo) active() []*entity.CalendarEvent {
	var out []*entity.CalendarEvent
	for _, ev := range r.events {
		if !ev.IsDeleted {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memCalendarRepo) GetEventByMeetingID(_ context.Context, meetingID uuid.UUID) (*entity.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.active() {
		if ev.MeetingID != nil && *ev.MeetingID == meetingID {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCalendarRepo) ListEventsByMeetingID(_ context.Context, meetingID uuid.UUID) ([]entity.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarEvent
	for _, ev := range r.active() {
		if ev.MeetingID != nil && *ev.MeetingID == meetingID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (r *memCalendarRepo) GetEventByExternalID(_ context.Context, integrationID uuid.UUID, externalID string) (*entity.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.active() {
		if ev.IntegrationID == integrationID && ev.ExternalEventID == externalID {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCalendarRepo) GetEventByUserAndExternalID(_ context.Context, userID uuid.UUID, externalID string) (*entity.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.active() {
		integ := r.integrations[ev.IntegrationID]
		if integ != nil && integ.UserID == userID && ev.ExternalEventID == externalID {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCalendarRepo) ListEventsByUserAndWindow(_ context.Context, userID uuid.UUID, start, end time.Time) ([]entity.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarEvent
	for _, ev := range r.active() {
		integ := r.integrations[ev.IntegrationID]
		if integ == nil || integ.UserID != userID || integ.IsDeleted {
			continue
		}
		if ev.EndTime.Before(start) || !ev.StartTime.Before(end) {
			continue
		}
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memCalendarRepo) conflicts(ev *entity.CalendarEvent) bool {
	for _, other := range r.active() {
		if other.ID == ev.ID {
			continue
		}
		if other.IntegrationID == ev.IntegrationID && other.ExternalEventID == ev.ExternalEventID {
			return true
		}
		if ev.MeetingID != nil && other.MeetingID != nil && *other.MeetingID == *ev.MeetingID {
			return true
		}
	}
	return false
}

func (r *memCalendarRepo) CreateEvent(_ context.Context, ev *entity.CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(ev) {
		return errors.NewAppError(errors.ErrAlreadyExists, "calendar event already exists", nil)
	}
	ev.ID = uuid.New()
	ev.CreatedAt = r.tick()
	cp := *ev
	r.events[ev.ID] = &cp
	return nil
}

func (r *memCalendarRepo) UpdateEvent(_ context.Context, ev *entity.CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(ev) {
		return errors.NewAppError(errors.ErrAlreadyExists, "calendar event already exists", nil)
	}
	cp := *ev
	r.events[ev.ID] = &cp
	return nil
}

func (r *memCalendarRepo) LinkMeeting(_ context.Context, eventID, meetingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := *r.events[eventID]
	ev.MeetingID = &meetingID
	if r.conflicts(&ev) {
		return errors.NewAppError(errors.ErrAlreadyExists, "calendar event for meeting already exists", nil)
	}
	r.events[eventID] = &ev
	return nil
}

func (r *memCalendarRepo) SoftDeleteEvent(_ context.Context, eventID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[eventID].IsDeleted = true
	return nil
}

// put seeds a row as-is, bypassing the unique checks.
func (r *memCalendarRepo) put(ev entity.CalendarEvent) *entity.CalendarEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.CreatedAt = r.tick()
	r.events[ev.ID] = &ev
	return &ev
}

func (r *memCalendarRepo) activeRows() []entity.CalendarEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CalendarEvent
	for _, ev := range r.active() {
		out = append(out, *ev)
	}
	return out
}

type memCredentials struct {
	creds       map[uuid.UUID]provider.Credential
	saved       []provider.Token
	deactivated int
}

func newMemCredentials() *memCredentials {
	return &memCredentials{creds: make(map[uuid.UUID]provider.Credential)}
}

func (c *memCredentials) GetCredential(_ context.Context, userID uuid.UUID, _ string) (*provider.Credential, error) {
	cred, ok := c.creds[userID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (c *memCredentials) SaveCredential(_ context.Context, userID uuid.UUID, _ string, cred provider.Credential) error {
	c.creds[userID] = cred
	return nil
}

func (c *memCredentials) SaveTokens(_ context.Context, _ uuid.UUID, _ string, token provider.Token) error {
	c.saved = append(c.saved, token)
	return nil
}

func (c *memCredentials) Deactivate(_ context.Context, userID uuid.UUID, _ string) error {
	delete(c.creds, userID)
	c.deactivated++
	return nil
}

type memMeetings struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*meetingentity.Meeting
	created  int
}

func newMemMeetings() *memMeetings {
	return &memMeetings{meetings: make(map[uuid.UUID]*meetingentity.Meeting)}
}

func (s *memMeetings) add(m meetingentity.Meeting) *meetingentity.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.meetings[m.ID] = &m
	return &m
}

func (s *memMeetings) GetMeetingByID(_ context.Context, id uuid.UUID) (*meetingentity.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *memMeetings) CreateMeeting(_ context.Context, m *meetingentity.Meeting) (*meetingentity.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	cp.ID = uuid.New()
	s.meetings[cp.ID] = &cp
	s.created++
	out := cp
	return &out, nil
}

func (s *memMeetings) UpdateSyncedFields(_ context.Context, m *meetingentity.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.meetings[m.ID]
	if !ok {
		return nil
	}
	stored.Title, stored.StartTime, stored.MeetingLink, stored.Platform = m.Title, m.StartTime, m.MeetingLink, m.Platform
	return nil
}

type memTranscripts struct {
	byID map[uuid.UUID]*transcriptentity.Transcript
}

func (m *memTranscripts) GetTranscriptByID(_ context.Context, id uuid.UUID) (*transcriptentity.Transcript, error) {
	return m.byID[id], nil
}

func (m *memTranscripts) GetLatestByMeetingID(_ context.Context, meetingID uuid.UUID) (*transcriptentity.Transcript, error) {
	for _, t := range m.byID {
		if t.MeetingID == meetingID {
			return t, nil
		}
	}
	return nil, nil
}

type memNotes struct {
	note  *noteentity.MeetingNote
	items []noteentity.NoteItem
}

func (m *memNotes) GetLatestNote(_ context.Context, meetingID uuid.UUID) (*noteentity.MeetingNote, error) {
	if m.note == nil || m.note.MeetingID != meetingID {
		return nil, nil
	}
	return m.note, nil
}

func (m *memNotes) GetNoteItems(context.Context, uuid.UUID) ([]noteentity.NoteItem, error) {
	return m.items, nil
}

type memFiles struct {
	files []fileentity.MeetingFile
}

func (m *memFiles) GetFileByID(_ context.Context, id uuid.UUID) (*fileentity.MeetingFile, error) {
	for i := range m.files {
		if m.files[i].ID == id {
			return &m.files[i], nil
		}
	}
	return nil, nil
}

func (m *memFiles) GetFilesByMeetingID(_ context.Context, meetingID uuid.UUID) ([]fileentity.MeetingFile, error) {
	var out []fileentity.MeetingFile
	for _, f := range m.files {
		if f.MeetingID == meetingID {
			out = append(out, f)
		}
	}
	return out, nil
}

type staticSigner struct{}

func (staticSigner) SignedURL(_ context.Context, key string) (string, error) {
	return "https://files.example.com/" + key + "?sig=1", nil
}

func writeCredential() provider.Credential {
	return provider.Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Scopes:       []string{calendar.CalendarEventsScope},
	}
}

func timed(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
}

func baseWithID() coreentity.BaseEntity {
	return coreentity.BaseEntity{ID: uuid.New()}
}

type harness struct {
	svc       *calendarService
	cal       *fakeCalendar
	calendars *memCalendarRepo
	creds     *memCredentials
	meetings  *memMeetings
	registry  *events.Registry
	locker    *cache.MemoryCache
	userID    uuid.UUID
}

// newHarness wires the service against in-memory stores for a user who has
// a write-capable credential.
func newHarness(t *testing.T, seed ...*calendar.Event) *harness {
	t.Helper()
	h := &harness{
		cal:       newFakeCalendar(seed...),
		calendars: newMemCalendarRepo(),
		creds:     newMemCredentials(),
		meetings:  newMemMeetings(),
		registry:  events.NewRegistry(),
		locker:    cache.NewMemoryCache(),
		userID:    uuid.New(),
	}
	h.creds.creds[h.userID] = writeCredential()
	h.svc = h.build(Dependencies{})
	return h
}

// build replaces the service, keeping the harness stores unless deps
// overrides them.
func (h *harness) build(deps Dependencies) *calendarService {
	if deps.Calendars == nil {
		deps.Calendars = h.calendars
	}
	deps.Credentials = h.creds
	deps.Meetings = h.meetings
	deps.Providers = &fakeFactory{cal: h.cal}
	deps.Locker = h.locker
	deps.Config = config.CalendarConfig{LockTTL: time.Minute, ReverseSyncDays: 30, DefaultTimezone: "UTC"}
	h.registry = events.NewRegistry()
	return NewCalendarService(deps, h.registry).(*calendarService)
}

func (h *harness) meeting(title string, start time.Time) *meetingentity.Meeting {
	return h.meetings.add(meetingentity.Meeting{
		UserID:          h.userID,
		Title:           title,
		StartTime:       start,
		DurationMinutes: 45,
		Timezone:        "UTC",
	})
}
