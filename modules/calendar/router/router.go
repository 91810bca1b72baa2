package router

import (
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Private routes (require authentication)
	calendarRoutes := v1.Group("/private/calendar")
	calendarRoutes.Use(mw.AuthMiddleware())

	// Integrations
	calendarRoutes.POST("/integrations", r.controller.ConnectCalendar)
	calendarRoutes.GET("/integrations", r.controller.GetIntegrations)
	calendarRoutes.DELETE("/integrations/:provider", r.controller.DisconnectCalendar)

	// Sync
	calendarRoutes.POST("/meetings/:id/sync", r.controller.SyncMeeting)
	calendarRoutes.GET("/meetings/:id/event", r.controller.GetMeetingEvent)
	calendarRoutes.POST("/reverse-sync", r.controller.ReverseSync)

	// Events
	calendarRoutes.GET("/events", r.controller.ListEvents)
	calendarRoutes.GET("/feed.ics", r.controller.ExportFeed)
}
