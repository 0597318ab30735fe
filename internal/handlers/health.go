package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"serena/internal/database"
	"serena/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	mongo *database.MongoDB
	redis *services.RedisService
}

func NewHealthHandler(mongo *database.MongoDB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	mongoStatus := "disabled"
	if h.mongo != nil {
		mongoStatus = "up"
		if err := h.mongo.Ping(c.UserContext()); err != nil {
			mongoStatus = "down"
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "up"
		if err := h.redis.Ping(c.UserContext()); err != nil {
			redisStatus = "down"
		}
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"mongo":     mongoStatus,
		"redis":     redisStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
