package controller

import (
	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/controller"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/utils"
	"go-meeting-sync/modules/meetingnote/dto"
	"go-meeting-sync/modules/meetingnote/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type MeetingNoteController struct {
	controller.BaseController
	NoteService service.MeetingNoteServiceInterface
}

func NewMeetingNoteController(svc service.MeetingNoteServiceInterface) *MeetingNoteController {
	return &MeetingNoteController{
		BaseController: controller.NewBaseController(),
		NoteService:    svc,
	}
}

func (c *MeetingNoteController) ids(ctx echo.Context) (uuid.UUID, uuid.UUID, error) {
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

// CreateNote handles POST /meetings/:id/notes
// @Summary Attach a note to a meeting
// @Tags MeetingNote
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param request body dto.CreateNoteRequest true "Note"
// @Success 201 {object} dto.NoteResponse
// @Router /private/meetings/{id}/notes [post]
func (c *MeetingNoteController) CreateNote(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateNoteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.NoteService.CreateNote(ctx.Request().Context(), userID, meetingID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, result, "Note created successfully")
}

// GetLatestNote handles GET /meetings/:id/notes/latest
func (c *MeetingNoteController) GetLatestNote(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}

	result, appErr := c.NoteService.GetLatestNote(ctx.Request().Context(), userID, meetingID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
