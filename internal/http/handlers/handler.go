package handlers

import (
	"tasks_api/internal/http/middleware"
	"tasks_api/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Tasks *service.TaskService
}

func NewHandler(tasks *service.TaskService) *Handler {
	return &Handler{Tasks: tasks}
}

// getOwner returns the identity set by middleware.Identity.
func getOwner(c *gin.Context) (string, bool) {
	return middleware.Owner(c)
}
