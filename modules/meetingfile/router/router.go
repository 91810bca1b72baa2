package router

import (
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/modules/meetingfile/controller"

	"github.com/labstack/echo/v4"
)

type MeetingFileRouter struct {
	FileController *controller.MeetingFileController
}

func NewMeetingFileRouter(ctrl *controller.MeetingFileController) *MeetingFileRouter {
	return &MeetingFileRouter{FileController: ctrl}
}

func (r *MeetingFileRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	routes := privateRoutes.Group("/meetings/:id/files", mw.AuthMiddleware())
	routes.POST("", r.FileController.AddFile)
	routes.GET("", r.FileController.ListFiles)
	routes.PUT("/:fileId", r.FileController.UpdateFile)
}
