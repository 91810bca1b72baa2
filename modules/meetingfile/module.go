package meetingfile

import (
	"go-meeting-sync/core/database"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/core/storage"
	meetingrepo "go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/meetingfile/controller"
	"go-meeting-sync/modules/meetingfile/repository"
	"go-meeting-sync/modules/meetingfile/router"
	"go-meeting-sync/modules/meetingfile/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the meeting file module and registers routes
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, signer storage.URLSigner, publisher events.Publisher) {
	repo := repository.NewMeetingFileRepository(db)
	svc := service.NewMeetingFileService(repo, meetingrepo.NewMeetingRepository(db), signer, publisher)
	ctrl := controller.NewMeetingFileController(svc)
	rtr := router.NewMeetingFileRouter(ctrl)

	rtr.Setup(e, mw)
}
