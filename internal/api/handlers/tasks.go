package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// TaskHandler serves task CRUD and the task image lifecycle.
type TaskHandler struct {
	store store.Store
	orch  *storage.Orchestrator
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(st store.Store, orch *storage.Orchestrator) *TaskHandler {
	return &TaskHandler{store: st, orch: orch}
}

type createTaskRequest struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

type updateTaskRequest struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// List returns the tasks for one day, given by the date query parameter.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		BadRequest(w, "A date query parameter in YYYY-MM-DD form is required")
		return
	}

	tasks, err := h.store.ListTasksByDate(r.Context(), claims.UserID, date)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, tasks)
}

// Create adds a task to a day.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())

	var req createTaskRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validDate(req.Date) {
		BadRequest(w, "Date must be in YYYY-MM-DD form")
		return
	}
	if err := models.ValidateTaskTitle(req.Title); err != nil {
		BadRequest(w, err.Error())
		return
	}

	task := &models.Task{
		UserID: claims.UserID,
		Date:   req.Date,
		Title:  req.Title,
	}
	if _, err := h.store.CreateTask(r.Context(), task); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONCreated(w, task)
}

// Update changes a task's title or done state.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	task, err := h.store.GetTask(r.Context(), taskID, claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if req.Title != nil {
		if err := models.ValidateTaskTitle(*req.Title); err != nil {
			BadRequest(w, err.Error())
			return
		}
		task.Title = *req.Title
	}
	if req.Done != nil {
		task.Done = *req.Done
	}

	if err := h.store.UpdateTask(r.Context(), task); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, task)
}

// Delete removes a task, cascading to its image.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	if err := h.orch.DeleteTask(r.Context(), claims.UserID, taskID); err != nil {
		writeStorageError(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteByDate removes all of a day's tasks, cascading to their images.
func (h *TaskHandler) DeleteByDate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		BadRequest(w, "A date query parameter in YYYY-MM-DD form is required")
		return
	}

	deleted, err := h.orch.DeleteTasksByDate(r.Context(), claims.UserID, date)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, map[string]int64{"deleted": deleted})
}

// UploadImage attaches an image to a task, replacing any existing one.
func (h *TaskHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	up, ok := readMultipartFile(w, r, "image")
	if !ok {
		return
	}

	task, err := h.orch.UploadTaskImage(r.Context(), claims.UserID, taskID, up)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, task)
}

// DeleteImage removes a task's image.
func (h *TaskHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	task, err := h.orch.DeleteTaskImage(r.Context(), claims.UserID, taskID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	WriteJSONOK(w, task)
}
