package controller

import (
	"time"

	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/controller"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/utils"
	"go-meeting-sync/modules/meeting/dto"
	"go-meeting-sync/modules/meeting/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MeetingController handles meeting HTTP requests
type MeetingController struct {
	controller.BaseController
	MeetingService service.MeetingServiceInterface
}

// NewMeetingController creates a new controller
func NewMeetingController(svc service.MeetingServiceInterface) *MeetingController {
	return &MeetingController{
		BaseController: controller.NewBaseController(),
		MeetingService: svc,
	}
}

// getUserIDFromContext extracts user ID from JWT context
func (c *MeetingController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}

func parseTimeParam(ctx echo.Context, name string) (*time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateMeeting handles POST /meetings
// @Summary Create a meeting
// @Tags Meeting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateMeetingRequest true "Meeting"
// @Success 201 {object} dto.MeetingResponse
// @Router /private/meetings [post]
func (c *MeetingController) CreateMeeting(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateMeetingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.MeetingService.CreateMeeting(ctx.Request().Context(), userID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.CreatedResponse(ctx, result, "Meeting created successfully")
}

// GetMeeting handles GET /meetings/:id
// @Summary Get a meeting
// @Tags Meeting
// @Security BearerAuth
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} dto.MeetingResponse
// @Router /private/meetings/{id} [get]
func (c *MeetingController) GetMeeting(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	meetingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid meeting ID")
	}

	result, appErr := c.MeetingService.GetMeeting(ctx.Request().Context(), userID, meetingID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetMyMeetings handles GET /meetings?from=&to=
// @Summary List my meetings
// @Tags Meeting
// @Security BearerAuth
// @Produce json
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {array} dto.MeetingResponse
// @Router /private/meetings [get]
func (c *MeetingController) GetMyMeetings(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	from, err := parseTimeParam(ctx, "from")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid from time")
	}
	to, err := parseTimeParam(ctx, "to")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid to time")
	}

	result, appErr := c.MeetingService.GetMyMeetings(ctx.Request().Context(), userID, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// UpdateMeeting handles PUT /meetings/:id
// @Summary Update a meeting
// @Tags Meeting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param request body dto.UpdateMeetingRequest true "Fields to change"
// @Success 200 {object} dto.MeetingResponse
// @Router /private/meetings/{id} [put]
func (c *MeetingController) UpdateMeeting(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	meetingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid meeting ID")
	}

	var req dto.UpdateMeetingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.MeetingService.UpdateMeeting(ctx.Request().Context(), userID, meetingID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Meeting updated successfully")
}

// DeleteMeeting handles DELETE /meetings/:id
// @Summary Delete a meeting
// @Tags Meeting
// @Security BearerAuth
// @Param id path string true "Meeting ID"
// @Success 200 {object} controller.SuccessResponse
// @Router /private/meetings/{id} [delete]
func (c *MeetingController) DeleteMeeting(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	meetingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid meeting ID")
	}

	if appErr := c.MeetingService.DeleteMeeting(ctx.Request().Context(), userID, meetingID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Meeting deleted successfully")
}
