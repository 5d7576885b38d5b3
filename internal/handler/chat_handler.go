package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/oferta-api/internal/service"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
	"github.com/eduportal/oferta-api/pkg/response"
)

type chatService interface {
	Enabled() bool
	Ask(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error)
}

// ChatHandler exposes the catalog chatbot endpoint.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs ChatHandler.
func NewChatHandler(service chatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Ask godoc
// @Summary Ask the catalog assistant a question
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body service.ChatRequest true "Question and optional session id"
// @Success 200 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	if h.service == nil || !h.service.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "chat is not configured"))
		return
	}
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	answer, err := h.service.Ask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answer, nil)
}
