package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/dlerhq/dler/internal/db/models"
	"github.com/dlerhq/dler/internal/db/repos"
	"github.com/dlerhq/dler/internal/downloader"
	"github.com/dlerhq/dler/internal/services"
)

// TaskHandler exposes the task lifecycle over HTTP
type TaskHandler struct {
	service *services.Task
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service *services.Task) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTask accepts a download request and returns the covering task id.
// The call never waits on the download; a valid cache hit returns the
// reused task id instead of dispatching new work.
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgInvalidReqBody,
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgURLRequired,
		})
	}

	var opts downloader.Options
	if req.Options != nil {
		opts = downloader.Options{AudioOnly: req.Options.AudioOnly, Format: req.Options.Format}
	}

	task, err := h.service.Submit(c.Context(), req.URL, opts)
	if err != nil {
		if errors.Is(err, services.ErrInvalidURL) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ErrMsgInvalidURL,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgSubmitFailed,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(TaskAcceptedResponse{
		TaskID: task.ID,
		URL:    task.URL,
	})
}

// GetTaskStatus returns the status shape of a task
func (h *TaskHandler) GetTaskStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgTaskIDRequired,
		})
	}

	info, err := h.service.Status(c.Context(), id)
	if err != nil {
		if errors.Is(err, repos.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrMsgTaskNotFound,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgStatusFailed,
		})
	}

	return c.JSON(info)
}

// GetHistory returns the recent submissions, most recent first
func (h *TaskHandler) GetHistory(c *fiber.Ctx) error {
	infos, err := h.service.History(c.Context(), models.MaxHistorySize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgHistoryFailed,
		})
	}
	return c.JSON(infos)
}

// DownloadFile serves a successful task's file under its display name
func (h *TaskHandler) DownloadFile(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgTaskIDRequired,
		})
	}

	path, displayName, err := h.service.FileFor(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbiddenPath):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": ErrMsgFileForbidden,
			})
		case errors.Is(err, repos.ErrTaskNotFound), errors.Is(err, services.ErrFileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrMsgFileNotFound,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": ErrMsgStatusFailed,
			})
		}
	}

	return c.Download(path, displayName)
}

// DeleteTask forgets a task, its history and cache references, and
// best-effort removes its backing file
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgTaskIDRequired,
		})
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, repos.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrMsgTaskNotFound,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgDeleteFailed,
		})
	}

	return c.JSON(TaskDeletedResponse{Status: "deleted", TaskID: id})
}

// RedownloadTask invalidates the cached result for a task's URL and
// submits it afresh
func (h *TaskHandler) RedownloadTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrMsgTaskIDRequired,
		})
	}

	task, err := h.service.Redownload(c.Context(), id)
	if err != nil {
		if errors.Is(err, repos.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrMsgTaskNotFound,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrMsgRedoFailed,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(TaskAcceptedResponse{
		TaskID: task.ID,
		URL:    task.URL,
	})
}
