package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"serena/internal/models"
	"serena/internal/services"
)

// ChatHandler adapts HTTP to the pipeline. Transport stays thin: parse,
// validate, hand off, serialize.
type ChatHandler struct {
	pipeline *services.PipelineService
}

func NewChatHandler(pipeline *services.PipelineService) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

type chatRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

// Handle processes POST /api/chat.
func (h *ChatHandler) Handle(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" || strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and content are required"})
	}

	reply := h.pipeline.HandleMessage(c.UserContext(), models.Message{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		Timestamp:      time.Now(),
	})

	return c.JSON(reply)
}
