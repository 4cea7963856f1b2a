package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/linguasense/server/chat"
	"github.com/hrygo/linguasense/store"
)

type CreateMessageRequest struct {
	Content string `json:"content"`
	// Scenario optionally selects a named conversation scenario; empty means
	// free conversation.
	Scenario string `json:"scenario"`
}

type MessageResponse struct {
	UID        string `json:"uid"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	SessionTag string `json:"sessionTag,omitempty"`
	CreatedTs  int64  `json:"createdTs"`
}

func convertMessage(message *store.Message) *MessageResponse {
	return &MessageResponse{
		UID:        message.UID,
		Role:       string(message.Role),
		Content:    message.Content,
		SessionTag: message.SessionTag,
		CreatedTs:  message.CreatedTs,
	}
}

// CreateMessage runs one interactive chat turn and returns the assistant's
// reply. A blank message returns 204 without persisting anything.
func (s *APIV1Service) CreateMessage(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}

	req := &CreateMessageRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	result, err := s.Chat.Reply(c.Request().Context(), learner.ID, req.Content, req.Scenario)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process message").SetInternal(err)
	}
	if result.State == chat.StateEmpty {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"state": string(result.State),
		"reply": convertMessage(result.Reply),
	})
}

// ListMessages returns a learner's history, newest first.
func (s *APIV1Service) ListMessages(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}

	find := &store.FindMessage{LearnerID: &learner.ID}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		find.Limit = &limit
	}

	messages, err := s.Store.ListMessages(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages").SetInternal(err)
	}

	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, convertMessage(message))
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": responses})
}
