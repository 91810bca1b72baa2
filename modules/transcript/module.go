package transcript

import (
	"go-meeting-sync/core/database"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/middleware"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/transcript/controller"
	"go-meeting-sync/modules/transcript/repository"
	"go-meeting-sync/modules/transcript/router"
	"go-meeting-sync/modules/transcript/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the transcript module and registers routes
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, publisher events.Publisher) {
	repo := repository.NewTranscriptRepository(db)
	svc := service.NewTranscriptService(repo, meetingrepo.NewMeetingRepository(db), publisher)
	ctrl := controller.NewTranscriptController(svc)
	rtr := router.NewTranscriptRouter(ctrl)

	rtr.Setup(e, mw)
}
