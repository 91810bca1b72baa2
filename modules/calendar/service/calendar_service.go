package service

import (
	"context"
	"strings"
	"time"

	"go-meeting-sync/core/cache"
	"go-meeting-sync/core/config"
	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/storage"
	"go-meeting-sync/modules/calendar/dto"
	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/provider"
	"go-meeting-sync/modules/calendar/repository"

	"github.com/google/uuid"
)

// Handler keys under which the service subscribes to lifecycle events.
const (
	handlerForwardSync    = "calendar.forward_sync"
	handlerRefreshContent = "calendar.refresh_description"
	handlerDeleteMirror   = "calendar.delete_mirror"
)

// CalendarService is the entry point the rest of the application uses for
// calendar synchronization and calendar data.
type CalendarService interface {
	// Forward sync
	SyncMeeting(ctx context.Context, userID, meetingID uuid.UUID) (*dto.ForwardSyncResult, error)
	UpdateWithTranscript(ctx context.Context, transcriptID uuid.UUID) (*dto.ForwardSyncResult, error)
	UpdateWithFiles(ctx context.Context, fileID uuid.UUID) (*dto.ForwardSyncResult, error)
	DeleteForMeeting(ctx context.Context, meetingID uuid.UUID) error

	// Reverse sync
	ReverseSync(ctx context.Context, userID uuid.UUID, start, end *time.Time) (*dto.SyncSummary, error)
	ActiveUsers(ctx context.Context) ([]uuid.UUID, error)

	// Integrations
	ConnectCalendar(ctx context.Context, userID uuid.UUID, req *dto.ConnectCalendarRequest) (*dto.IntegrationResponse, error)
	GetIntegrations(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error)
	DisconnectCalendar(ctx context.Context, userID uuid.UUID, provider string) error

	// Calendar data
	ListCalendarEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]dto.CalendarEventResponse, error)
	GetMeetingCalendarEvent(ctx context.Context, userID, meetingID uuid.UUID) (*dto.CalendarEventResponse, error)
	ExportICS(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]byte, error)
}

// Dependencies wires the service. Transcripts, Notes, Files and Signer may
// be nil; Tx defaults to running without a transaction.
type Dependencies struct {
	Calendars   repository.CalendarRepository
	Credentials repository.CredentialRepository
	Meetings    MeetingStore
	Transcripts TranscriptReader
	Notes       NoteReader
	Files       FileReader
	Signer      storage.URLSigner
	Providers   ProviderFactory
	Locker      cache.Locker
	Tx          Transactor
	Config      config.CalendarConfig
}

type calendarService struct {
	calendars   repository.CalendarRepository
	credentials repository.CredentialRepository
	meetings    MeetingStore
	transcripts TranscriptReader
	files       FileReader
	forward     *ForwardSyncEngine
	reverse     *ReverseSyncEngine
	cfg         config.CalendarConfig
	now         func() time.Time
}

// NewCalendarService builds the service and, when registry is non-nil,
// subscribes it to meeting, transcript and file lifecycle events.
func NewCalendarService(deps Dependencies, registry *events.Registry) CalendarService {
	cfg := deps.Config
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.ReverseSyncDays <= 0 {
		cfg.ReverseSyncDays = 30
	}
	tx := deps.Tx
	if tx == nil {
		tx = noTx{}
	}
	locker := deps.Locker
	if locker == nil {
		locker = cache.NewMemoryCache()
	}

	resolver := &integrationResolver{
		calendars:    deps.Calendars,
		credentials:  deps.Credentials,
		providers:    deps.Providers,
		providerName: constants.ProviderGoogle,
	}
	matcher := NewEventMatcher(cfg.DefaultTimezone)
	locks := &keyLocker{locker: locker, ttl: cfg.LockTTL, wait: cfg.LockWait}

	s := &calendarService{
		calendars:   deps.Calendars,
		credentials: deps.Credentials,
		meetings:    deps.Meetings,
		transcripts: deps.Transcripts,
		files:       deps.Files,
		cfg:         cfg,
		now:         time.Now,
		forward: &ForwardSyncEngine{
			calendars: deps.Calendars,
			meetings:  deps.Meetings,
			resolver:  resolver,
			content: &contentLoader{
				transcripts: deps.Transcripts,
				notes:       deps.Notes,
				files:       deps.Files,
				signer:      deps.Signer,
			},
			matcher: matcher,
			locks:   locks,
		},
		reverse: &ReverseSyncEngine{
			calendars: deps.Calendars,
			meetings:  deps.Meetings,
			resolver:  resolver,
			matcher:   matcher,
			locks:     locks,
			tx:        tx,
		},
	}

	if registry != nil {
		s.register(registry)
	}
	return s
}

func (s *calendarService) register(registry *events.Registry) {
	registry.Register(events.MeetingCreated, handlerForwardSync, s.onMeetingChanged)
	registry.Register(events.MeetingUpdated, handlerForwardSync, s.onMeetingChanged)
	registry.Register(events.MeetingDeleted, handlerDeleteMirror, s.onMeetingDeleted)
	registry.Register(events.TranscriptCreated, handlerRefreshContent, s.onTranscriptChanged)
	registry.Register(events.TranscriptUpdated, handlerRefreshContent, s.onTranscriptChanged)
	registry.Register(events.MeetingFileCreated, handlerRefreshContent, s.onFileChanged)
	registry.Register(events.MeetingFileUpdated, handlerRefreshContent, s.onFileChanged)
}

// ignorable reports errors a trigger should not treat as failures: the
// user never connected a calendar, or granted read-only access.
func ignorable(err error) bool {
	return errors.HasCode(err, errors.ErrNotFound) || errors.HasCode(err, errors.ErrPermissionDenied)
}

func (s *calendarService) handle(name string, id uuid.UUID, err error) error {
	if err == nil || ignorable(err) {
		if err != nil {
			logger.Info("CalendarService:"+name+":Skipped", "entity_id", id, "reason", err)
		}
		return nil
	}
	logger.Error("CalendarService:"+name+":Error", "entity_id", id, "error", err)
	return err
}

func (s *calendarService) onMeetingChanged(ctx context.Context, p events.Payload) error {
	_, err := s.forward.Sync(ctx, p.EntityID)
	return s.handle("OnMeetingChanged", p.EntityID, err)
}

func (s *calendarService) onMeetingDeleted(ctx context.Context, p events.Payload) error {
	return s.handle("OnMeetingDeleted", p.EntityID, s.DeleteForMeeting(ctx, p.EntityID))
}

func (s *calendarService) onTranscriptChanged(ctx context.Context, p events.Payload) error {
	_, err := s.UpdateWithTranscript(ctx, p.EntityID)
	return s.handle("OnTranscriptChanged", p.EntityID, err)
}

func (s *calendarService) onFileChanged(ctx context.Context, p events.Payload) error {
	_, err := s.UpdateWithFiles(ctx, p.EntityID)
	return s.handle("OnFileChanged", p.EntityID, err)
}

// SyncMeeting is the explicit "sync now" action; unlike triggers it returns
// every failure to the caller.
func (s *calendarService) SyncMeeting(ctx context.Context, userID, meetingID uuid.UUID) (*dto.ForwardSyncResult, error) {
	meeting, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting", err)
	}
	if meeting == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "meeting not found", nil)
	}
	if meeting.UserID != userID {
		return nil, errors.NewAppError(errors.ErrForbidden, "not authorized", nil)
	}

	result, err := s.forward.Sync(ctx, meetingID)
	if err != nil {
		logger.Error("CalendarService:SyncMeeting:Error", "meeting_id", meetingID, "error", err)
		return nil, err
	}
	return result, nil
}

func (s *calendarService) UpdateWithTranscript(ctx context.Context, transcriptID uuid.UUID) (*dto.ForwardSyncResult, error) {
	if s.transcripts == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "transcripts not available", nil)
	}
	t, err := s.transcripts.GetTranscriptByID(ctx, transcriptID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load transcript", err)
	}
	if t == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "transcript not found", nil)
	}
	return s.forward.RefreshDescription(ctx, t.MeetingID)
}

func (s *calendarService) UpdateWithFiles(ctx context.Context, fileID uuid.UUID) (*dto.ForwardSyncResult, error) {
	if s.files == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "files not available", nil)
	}
	f, err := s.files.GetFileByID(ctx, fileID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load file", err)
	}
	if f == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "file not found", nil)
	}
	return s.forward.RefreshDescription(ctx, f.MeetingID)
}

func (s *calendarService) DeleteForMeeting(ctx context.Context, meetingID uuid.UUID) error {
	return s.forward.Delete(ctx, meetingID)
}

// ReverseSync imports the user's provider events. A nil start means now and
// a nil end means start plus the configured number of days.
func (s *calendarService) ReverseSync(ctx context.Context, userID uuid.UUID, start, end *time.Time) (*dto.SyncSummary, error) {
	from := s.now()
	if start != nil {
		from = *start
	}
	to := from.AddDate(0, 0, s.cfg.ReverseSyncDays)
	if end != nil {
		to = *end
	}
	if !to.After(from) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end must be after start", nil)
	}

	summary, err := s.reverse.Run(ctx, userID, from, to)
	if err != nil {
		logger.Error("CalendarService:ReverseSync:Error", "user_id", userID, "error", err)
		return nil, err
	}
	return summary, nil
}

func (s *calendarService) ActiveUsers(ctx context.Context) ([]uuid.UUID, error) {
	integrations, err := s.calendars.ListActiveIntegrations(ctx, constants.ProviderGoogle)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list integrations", err)
	}
	users := make([]uuid.UUID, 0, len(integrations))
	for _, integ := range integrations {
		users = append(users, integ.UserID)
	}
	return users, nil
}

// ConnectCalendar stores the credential and creates or refreshes the
// integration row for it.
func (s *calendarService) ConnectCalendar(ctx context.Context, userID uuid.UUID, req *dto.ConnectCalendarRequest) (*dto.IntegrationResponse, error) {
	providerName := strings.ToLower(strings.TrimSpace(req.Provider))
	if providerName == "" {
		providerName = constants.ProviderGoogle
	}
	if providerName != constants.ProviderGoogle {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unsupported calendar provider", nil)
	}
	if req.Credential.AccessToken == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "access token is required", nil)
	}
	if _, ok := provider.SelectScope(req.Credential.Scopes); !ok {
		return nil, errors.NewAppError(errors.ErrPermissionDenied, "no calendar scope granted", nil)
	}

	if err := s.credentials.SaveCredential(ctx, userID, providerName, req.Credential); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save credential", err)
	}

	var expiry *time.Time
	if !req.Credential.Expiry.IsZero() {
		t := req.Credential.Expiry
		expiry = &t
	}

	integ, err := s.calendars.GetIntegration(ctx, userID, providerName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar integration", err)
	}
	if integ == nil {
		integ = &entity.CalendarIntegration{UserID: userID, Provider: providerName}
	}
	integ.AccessToken = req.Credential.AccessToken
	if req.Credential.RefreshToken != "" {
		integ.RefreshToken = req.Credential.RefreshToken
	}
	integ.TokenExpiresAt = expiry
	integ.Scope = req.Credential.ScopeString()
	integ.CalendarID = req.CalendarID

	if integ.ID == uuid.Nil {
		err = s.calendars.CreateIntegration(ctx, integ)
		if err == nil {
			err = s.calendars.AdoptEvents(ctx, integ)
		}
	} else {
		err = s.calendars.UpdateIntegration(ctx, integ)
	}
	if err != nil {
		return nil, errors.NewAppError(errors.CodeOf(err), "failed to save calendar integration", err)
	}

	logger.Info("CalendarService:ConnectCalendar:Connected", "user_id", userID, "integration_id", integ.ID, "scope", integ.Scope)
	resp := dto.ToIntegrationResponse(integ)
	return &resp, nil
}

func (s *calendarService) GetIntegrations(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error) {
	integrations, err := s.calendars.ListIntegrationsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list integrations", err)
	}
	result := make([]dto.IntegrationResponse, 0, len(integrations))
	for i := range integrations {
		result = append(result, dto.ToIntegrationResponse(&integrations[i]))
	}
	return result, nil
}

func (s *calendarService) DisconnectCalendar(ctx context.Context, userID uuid.UUID, providerName string) error {
	integ, err := s.calendars.GetIntegration(ctx, userID, providerName)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load calendar integration", err)
	}
	if integ == nil {
		return errors.NewAppError(errors.ErrNotFound, "calendar not connected", nil)
	}
	// the resolver would otherwise rebuild the integration from the credential
	if err := s.credentials.Deactivate(ctx, userID, providerName); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to deactivate credential", err)
	}
	if err := s.calendars.SoftDeleteIntegration(ctx, userID, providerName); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to disconnect calendar", err)
	}
	logger.Info("CalendarService:DisconnectCalendar:Done", "user_id", userID, "provider", providerName)
	return nil
}

func (s *calendarService) ListCalendarEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]dto.CalendarEventResponse, error) {
	rows, err := s.calendars.ListEventsByUserAndWindow(ctx, userID, start, end)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list calendar events", err)
	}
	return dto.ToCalendarEventResponses(rows), nil
}

func (s *calendarService) GetMeetingCalendarEvent(ctx context.Context, userID, meetingID uuid.UUID) (*dto.CalendarEventResponse, error) {
	meeting, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting", err)
	}
	if meeting == nil || meeting.UserID != userID {
		return nil, errors.NewAppError(errors.ErrNotFound, "meeting not found", nil)
	}

	row, err := s.calendars.GetEventByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar event", err)
	}
	if row == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "meeting is not on the calendar", nil)
	}
	resp := dto.ToCalendarEventResponse(row)
	return &resp, nil
}

func (s *calendarService) ExportICS(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]byte, error) {
	rows, err := s.calendars.ListEventsByUserAndWindow(ctx, userID, start, end)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list calendar events", err)
	}
	data, err := EncodeICS(rows, s.now())
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to render calendar feed", err)
	}
	return data, nil
}
