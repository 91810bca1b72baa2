package controller

import (
	"net/http"
	"time"

	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/controller"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/utils"
	"go-meeting-sync/modules/calendar/dto"
	"go-meeting-sync/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const icsContentType = "text/calendar; charset=utf-8"

type CalendarController struct {
	controller.BaseController
	service service.CalendarService
}

func NewCalendarController(service service.CalendarService) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// ConnectCalendar stores a provider credential for the current user
// POST /api/v1/private/calendar/integrations
func (c *CalendarController) ConnectCalendar(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ConnectCalendarRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, err := c.service.ConnectCalendar(ctx.Request().Context(), userID, &req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.CreatedResponse(ctx, result, "Calendar connected successfully")
}

// GetIntegrations returns all calendar integrations for the current user
// GET /api/v1/private/calendar/integrations
func (c *CalendarController) GetIntegrations(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, err := c.service.GetIntegrations(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Integrations retrieved successfully")
}

// DisconnectCalendar disconnects a calendar provider
// DELETE /api/v1/private/calendar/integrations/:provider
func (c *CalendarController) DisconnectCalendar(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	provider := ctx.Param("provider")
	if provider != constants.ProviderGoogle {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid provider")
	}

	if err := c.service.DisconnectCalendar(ctx.Request().Context(), userID, provider); err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, nil, "Disconnected successfully")
}

// SyncMeeting pushes one meeting to the user's calendar now
// POST /api/v1/private/calendar/meetings/:id/sync
func (c *CalendarController) SyncMeeting(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	meetingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid meeting ID")
	}

	result, err := c.service.SyncMeeting(ctx.Request().Context(), userID, meetingID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Meeting synced successfully")
}

// GetMeetingEvent returns the calendar event mirroring a meeting
// GET /api/v1/private/calendar/meetings/:id/event
func (c *CalendarController) GetMeetingEvent(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	meetingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid meeting ID")
	}

	result, err := c.service.GetMeetingCalendarEvent(ctx.Request().Context(), userID, meetingID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Calendar event retrieved successfully")
}

// ReverseSync imports meetings from the user's calendar
// POST /api/v1/private/calendar/reverse-sync
func (c *CalendarController) ReverseSync(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ReverseSyncRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, err := c.service.ReverseSync(ctx.Request().Context(), userID, req.Start, req.End)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Calendar synced successfully")
}

// ListEvents returns mirrored calendar events in a window
// GET /api/v1/private/calendar/events?start_time=...&end_time=...
func (c *CalendarController) ListEvents(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	start, end, err := parseWindow(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	result, err := c.service.ListCalendarEvents(ctx.Request().Context(), userID, start, end)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Calendar events retrieved successfully")
}

// ExportFeed renders mirrored events as an iCalendar feed
// GET /api/v1/private/calendar/feed.ics?start_time=...&end_time=...
func (c *CalendarController) ExportFeed(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	start, end, err := parseWindow(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	data, err := c.service.ExportICS(ctx.Request().Context(), userID, start, end)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return ctx.Blob(http.StatusOK, icsContentType, data)
}

func getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	claims, ok := ctx.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok || claims == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "No token provided", nil)
	}
	return claims.UserID, nil
}

// parseWindow reads start_time and end_time; both default to a window of
// the past week through the next thirty days.
func parseWindow(ctx echo.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start, end := now.AddDate(0, 0, -7), now.AddDate(0, 0, 30)

	if raw := ctx.QueryParam("start_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, errors.NewAppError(errors.ErrInvalidInput, "Invalid start_time format", err)
		}
		start = t
	}
	if raw := ctx.QueryParam("end_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, errors.NewAppError(errors.ErrInvalidInput, "Invalid end_time format", err)
		}
		end = t
	}
	if !end.After(start) {
		return start, end, errors.NewAppError(errors.ErrInvalidInput, "end_time must be after start_time", nil)
	}
	return start, end, nil
}
