package router

import (
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/modules/transcript/controller"

	"github.com/labstack/echo/v4"
)

type TranscriptRouter struct {
	TranscriptController *controller.TranscriptController
}

func NewTranscriptRouter(ctrl *controller.TranscriptController) *TranscriptRouter {
	return &TranscriptRouter{TranscriptController: ctrl}
}

func (r *TranscriptRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	routes := privateRoutes.Group("/meetings/:id/transcript", mw.AuthMiddleware())
	routes.PUT("", r.TranscriptController.SaveTranscript)
	routes.GET("", r.TranscriptController.GetTranscript)
}
