package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/middleware"
	"go-meeting-sync/modules/calendar"
	"go-meeting-sync/modules/meeting"
	"go-meeting-sync/modules/meetingfile"
	"go-meeting-sync/modules/meetingnote"
	"go-meeting-sync/modules/transcript"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func (a *App) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())

	e.GET("/health", func(c echo.Context) error {
		if err := a.Cache.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	mw := middleware.NewMiddleware()
	meeting.Init(e, a.DB, mw, a.Registry)
	transcript.Init(e, a.DB, mw, a.Registry)
	meetingnote.Init(e, a.DB, mw)
	meetingfile.Init(e, a.DB, mw, a.Signer, a.Registry)
	calendar.Init(e, mw, a.Calendar)
	return e
}

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	e := a.router()
	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server:Serve:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server:Serve:ShuttingDown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
