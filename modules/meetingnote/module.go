package meetingnote

import (
	"go-meeting-sync/core/database"
	"go-meeting-sync/core/middleware"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/meetingnote/controller"
	"go-meeting-sync/modules/meetingnote/repository"
	"go-meeting-sync/modules/meetingnote/router"
	"go-meeting-sync/modules/meetingnote/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the meeting note module and registers routes
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) {
	repo := repository.NewMeetingNoteRepository(db)
	svc := service.NewMeetingNoteService(repo, meetingrepo.NewMeetingRepository(db))
	ctrl := controller.NewMeetingNoteController(svc)
	rtr := router.NewMeetingNoteRouter(ctrl)

	rtr.Setup(e, mw)
}
