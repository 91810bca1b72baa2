package controller

import (
	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/controller"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/utils"
	"go-meeting-sync/modules/transcript/dto"
	"go-meeting-sync/modules/transcript/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type TranscriptController struct {
	controller.BaseController
	TranscriptService service.TranscriptServiceInterface
}

func NewTranscriptController(svc service.TranscriptServiceInterface) *TranscriptController {
	return &TranscriptController{
		BaseController:    controller.NewBaseController(),
		TranscriptService: svc,
	}
}

func (c *TranscriptController) ids(ctx echo.Context) (uuid.UUID, uuid.UUID, error) {
	claims, ok := ctx.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	meetingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, c.BadRequest(errors.ErrInvalidInput, "Invalid meeting ID")
	}
	return claims.UserID, meetingID, nil
}

// SaveTranscript handles PUT /meetings/:id/transcript
// @Summary Save the meeting transcript
// @Tags Transcript
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param request body dto.SaveTranscriptRequest true "Transcript"
// @Success 200 {object} dto.TranscriptResponse
// @Router /private/meetings/{id}/transcript [put]
func (c *TranscriptController) SaveTranscript(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}

	var req dto.SaveTranscriptRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.TranscriptService.SaveTranscript(ctx.Request().Context(), userID, meetingID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Transcript saved successfully")
}

// GetTranscript handles GET /meetings/:id/transcript
func (c *TranscriptController) GetTranscript(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}

	result, appErr := c.TranscriptService.GetTranscript(ctx.Request().Context(), userID, meetingID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
