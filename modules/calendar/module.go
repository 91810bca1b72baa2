package calendar

import (
	"fmt"

	"go-meeting-sync/core/cache"
	"go-meeting-sync/core/config"
	"go-meeting-sync/core/database"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/core/security"
	"go-meeting-sync/core/storage"
	"go-meeting-sync/modules/calendar/controller"
	"go-meeting-sync/modules/calendar/provider"
	"go-meeting-sync/modules/calendar/repository"
	"go-meeting-sync/modules/calendar/router"
	"go-meeting-sync/modules/calendar/service"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	filerepo "go-meeting-sync/modules/meetingfile/repository"
	noterepo "go-meeting-sync/modules/meetingnote/repository"
	transcriptrepo "go-meeting-sync/modules/transcript/repository"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// NewService wires the calendar service and subscribes it to registry.
// signer may be nil when object storage is not configured.
func NewService(
	db database.Database,
	cfg *config.Config,
	locker cache.Locker,
	signer storage.URLSigner,
	registry *events.Registry,
) (service.CalendarService, error) {
	cipher, err := security.NewTokenCipher(cfg.Calendar.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("token cipher: %w", err)
	}

	factory := provider.NewGoogleFactory(provider.Options{
		OAuth: &oauth2.Config{
			ClientID:     cfg.GoogleAPI.ClientID,
			ClientSecret: cfg.GoogleAPI.ClientSecret,
			RedirectURL:  cfg.GoogleAPI.RedirectURI,
			Endpoint:     endpoints.Google,
		},
		Endpoint: cfg.GoogleAPI.Endpoint,
		Timeout:  cfg.Calendar.ProviderTimeout,
	})

	deps := service.Dependencies{
		Calendars:   repository.NewCalendarRepository(db, cipher),
		Credentials: repository.NewCredentialRepository(db),
		Meetings:    meetingrepo.NewMeetingRepository(db),
		Transcripts: transcriptrepo.NewTranscriptRepository(db),
		Notes:       noterepo.NewMeetingNoteRepository(db),
		Files:       filerepo.NewMeetingFileRepository(db),
		Signer:      signer,
		Providers:   factory,
		Locker:      locker,
		Tx:          db,
		Config:      cfg.Calendar,
	}
	return service.NewCalendarService(deps, registry), nil
}

// Init registers the calendar routes
func Init(e *echo.Echo, mw *middleware.Middleware, svc service.CalendarService) {
	ctrl := controller.NewCalendarController(svc)
	router.NewCalendarRouter(ctrl).Setup(e, mw)
}
