package router

import (
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/modules/meetingnote/controller"

	"github.com/labstack/echo/v4"
)

type MeetingNoteRouter struct {
	NoteController *controller.MeetingNoteController
}

func NewMeetingNoteRouter(ctrl *controller.MeetingNoteController) *MeetingNoteRouter {
	return &MeetingNoteRouter{NoteController: ctrl}
}

func (r *MeetingNoteRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	routes := privateRoutes.Group("/meetings/:id/notes", mw.AuthMiddleware())
	routes.POST("", r.NoteController.CreateNote)
	routes.GET("/latest", r.NoteController.GetLatestNote)
}
