package controller

import (
	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/controller"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/utils"
	"go-meeting-sync/modules/meetingfile/dto"
	"go-meeting-sync/modules/meetingfile/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type MeetingFileController struct {
	controller.BaseController
	FileService service.MeetingFileServiceInterface
}

func NewMeetingFileController(svc service.MeetingFileServiceInterface) *MeetingFileController {
	return &MeetingFileController{
		BaseController: controller.NewBaseController(),
		FileService:    svc,
	}
}

func (c *MeetingFileController) ids(ctx echo.Context) (uuid.UUID, uuid.UUID, error) {
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

// AddFile handles POST /meetings/:id/files
// @Summary Attach an uploaded file to a meeting
// @Tags MeetingFile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param request body dto.AddFileRequest true "File metadata"
// @Success 201 {object} dto.FileResponse
// @Router /private/meetings/{id}/files [post]
func (c *MeetingFileController) AddFile(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}

	var req dto.AddFileRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.FileService.AddFile(ctx.Request().Context(), userID, meetingID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, result, "File added successfully")
}

// UpdateFile handles PUT /meetings/:id/files/:fileId
func (c *MeetingFileController) UpdateFile(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}
	fileID, err := uuid.Parse(ctx.Param("fileId"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid file ID")
	}

	var req dto.UpdateFileRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.FileService.UpdateFile(ctx.Request().Context(), userID, meetingID, fileID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "File updated successfully")
}

// ListFiles handles GET /meetings/:id/files
func (c *MeetingFileController) ListFiles(ctx echo.Context) error {
	userID, meetingID, err := c.ids(ctx)
	if err != nil {
		return err
	}

	result, appErr := c.FileService.ListFiles(ctx.Request().Context(), userID, meetingID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
