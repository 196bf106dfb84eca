package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/atlasworks/projectfeed/internal/reqctx"
	"github.com/atlasworks/projectfeed/internal/service"
	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	svc       service.ChatService
	summaries service.SummaryService
}

func NewChatHandler(svc service.ChatService, summaries service.SummaryService) *ChatHandler {
	return &ChatHandler{svc: svc, summaries: summaries}
}

func actorFrom(c echo.Context) model.Actor {
	actor, _ := c.Get("actor").(model.Actor)
	return actor
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// queryCursor returns nil when the query parameter is absent, so callers can
// tell "no cursor" apart from an explicit 0.
func queryCursor(c echo.Context, name string) *uint64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

type EditMessageRequest struct {
	Message string `json:"message"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

type MarkReadRequest struct {
	LastReadMessageID uint64 `json:"last_read_message_id"`
}

type PresenceRequest struct {
	Status string `json:"status"`
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, err := h.svc.ListMessages(c.Request().Context(), projectID, actorFrom(c), limit, queryCursor(c, "after_id"), queryCursor(c, "before_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ChatHandler) PostMessage(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}

	in := service.PostMessageInput{
		Body: c.FormValue("message"),
	}
	if v := c.FormValue("reply_to_message_id"); v != "" {
		in.ReplyToMessageID, _ = strconv.ParseUint(v, 10, 64)
	}
	if fh, err := c.FormFile("attachment"); err == nil && fh != nil {
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable attachment"))
		}
		defer src.Close()
		in.Attachment = &service.AttachmentUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     src,
		}
	}

	item, err := h.svc.PostMessage(c.Request().Context(), projectID, actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *ChatHandler) EditMessage(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	item, err := h.svc.EditMessage(c.Request().Context(), projectID, messageID, actorFrom(c), req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	if err := h.svc.DeleteMessage(c.Request().Context(), projectID, messageID, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChatHandler) TogglePin(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	result, err := h.svc.TogglePin(c.Request().Context(), projectID, messageID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ChatHandler) ToggleReaction(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	var req ReactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	summaries, err := h.svc.ToggleReaction(c.Request().Context(), projectID, messageID, actorFrom(c), req.Emoji)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reactions": summaries})
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	result, err := h.svc.MarkRead(c.Request().Context(), projectID, actorFrom(c), req.LastReadMessageID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ChatHandler) ReportPresence(c echo.Context) error {
	if _, err := pathID(c, "projectId"); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	var req PresenceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := h.svc.ReportPresence(c.Request().Context(), actorFrom(c), req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChatHandler) GetAttachment(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	att, rc, err := h.svc.OpenAttachment(c.Request().Context(), projectID, messageID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	defer rc.Close()
	if !att.IsImage {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.DownloadName))
	}
	return c.Stream(http.StatusOK, att.ContentType, rc)
}

func (h *ChatHandler) Summary(c echo.Context) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	ctx := reqctx.WithRID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	result, err := h.summaries.DigestUnread(ctx, projectID, actorFrom(c), c.QueryParam("tone"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
