package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/atlasworks/projectfeed/internal/service"
	"github.com/labstack/echo/v4"
)

type ActivityHandler struct {
	svc service.ActivityService
}

func NewActivityHandler(svc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

type CommentRequest struct {
	Body string `json:"body"`
}

func (h *ActivityHandler) ListActivities(c echo.Context) error {
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid task id"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, err := h.svc.ListActivities(c.Request().Context(), taskID, actorFrom(c), limit, queryCursor(c, "after_id"), queryCursor(c, "before_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ActivityHandler) PostComment(c echo.Context) error {
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid task id"))
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	items, err := h.svc.PostComment(c.Request().Context(), taskID, actorFrom(c), req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"items": items})
}

func (h *ActivityHandler) Upload(c echo.Context) error {
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid task id"))
	}
	fh, err := c.FormFile("attachment")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "attachment is required"))
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable attachment"))
	}
	defer src.Close()

	item, err := h.svc.Upload(c.Request().Context(), taskID, actorFrom(c), &service.AttachmentUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     src,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *ActivityHandler) EditActivity(c echo.Context) error {
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid task id"))
	}
	activityID, err := pathID(c, "activityId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid activity id"))
	}
	if err := h.svc.EditActivity(c.Request().Context(), taskID, activityID, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ActivityHandler) DeleteActivity(c echo.Context) error {
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid task id"))
	}
	activityID, err := pathID(c, "activityId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid activity id"))
	}
	if err := h.svc.DeleteActivity(c.Request().Context(), taskID, activityID, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ActivityHandler) GetAttachment(c echo.Context) error {
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid task id"))
	}
	activityID, err := pathID(c, "activityId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid activity id"))
	}
	att, rc, err := h.svc.OpenAttachment(c.Request().Context(), taskID, activityID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	defer rc.Close()
	if !att.IsImage {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.DownloadName))
	}
	return c.Stream(http.StatusOK, att.ContentType, rc)
}
