package meeting

import (
	"go-meeting-sync/core/database"
	"go-meeting-sync/core/events"
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/modules/meeting/controller"
	"go-meeting-sync/modules/meeting/repository"
	"go-meeting-sync/modules/meeting/router"
	"go-meeting-sync/modules/meeting/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the meeting module and registers routes
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, publisher events.Publisher) {
	repo := repository.NewMeetingRepository(db)
	svc := service.NewMeetingService(repo, publisher)
	ctrl := controller.NewMeetingController(svc)
	rtr := router.NewMeetingRouter(ctrl)

	rtr.Setup(e, mw)
}
