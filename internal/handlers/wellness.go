package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"serena/internal/services"
)

// WellnessHandler exposes the per-user wellness views: goals, progress log
// and recent replies.
type WellnessHandler struct {
	goals    *services.GoalService
	progress *services.ProgressService
	messages *services.MessageService
}

func NewWellnessHandler(goals *services.GoalService, progress *services.ProgressService, messages *services.MessageService) *WellnessHandler {
	return &WellnessHandler{goals: goals, progress: progress, messages: messages}
}

type createGoalRequest struct {
	UserID      string `json:"user_id"`
	Description string `json:"description"`
}

// CreateGoal processes POST /api/goals.
func (h *WellnessHandler) CreateGoal(c *fiber.Ctx) error {
	var req createGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" || strings.TrimSpace(req.Description) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and description are required"})
	}

	goal, err := h.goals.Create(c.UserContext(), req.UserID, req.Description)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create goal"})
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// ListGoals processes GET /api/users/:userId/goals.
func (h *WellnessHandler) ListGoals(c *fiber.Ctx) error {
	goals, err := h.goals.List(c.UserContext(), c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list goals"})
	}
	return c.JSON(fiber.Map{"goals": goals})
}

// GetProgress processes GET /api/users/:userId/progress.
func (h *WellnessHandler) GetProgress(c *fiber.Ctx) error {
	log, err := h.progress.Log(c.UserContext(), c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load progress"})
	}
	return c.JSON(log)
}

// RecentReplies processes GET /api/users/:userId/replies.
func (h *WellnessHandler) RecentReplies(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 10))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	replies, err := h.messages.RecentReplies(c.UserContext(), c.Params("userId"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load replies"})
	}
	return c.JSON(fiber.Map{"replies": replies})
}
