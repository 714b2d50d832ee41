package handlers

import (
	"context"
	"errors"
	"net/http"

	"tasks_api/internal/logger"
	"tasks_api/internal/service"

	"github.com/gin-gonic/gin"
)

type createTaskRequest struct {
	Title *string `json:"title"`
}

// storeContext detaches the request from client cancellation: once a task
// operation starts it runs to completion.
func storeContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, service.ErrConsistency):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch updated task"})
	default:
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("task operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) ListTasks(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tasks, err := h.Tasks.List(storeContext(c), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Title == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	task, err := h.Tasks.Create(storeContext(c), owner, *req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Tasks.Delete(storeContext(c), owner, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *Handler) ToggleTask(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	task, err := h.Tasks.Toggle(storeContext(c), owner, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
