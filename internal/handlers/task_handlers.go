package handlers

import (
	"net/http"
	"time"

	"taskFlow/internal/handlers/dto"
	"taskFlow/internal/logger"
	"taskFlow/internal/models/task"
	"taskFlow/internal/service"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var fields []service.FieldError
	q := r.URL.Query()
	query := service.TaskQuery{
		Page:      queryInt(r, "page", &fields),
		Limit:     queryInt(r, "limit", &fields),
		Status:    q.Get("status"),
		Category:  q.Get("category"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if len(fields) > 0 {
		respondValidation(w, r, fields, "list_tasks")
		return
	}

	page, err := h.TaskService.List(r.Context(), u.ID, query)
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("tasks", page.Tasks),
		toPayload("pagination", page.Pagination))
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.TaskService.Stats(r.Context(), u.ID)
	if err != nil {
		handleError(w, r, err, "task_stats")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("total", stats.Total),
		toPayload("completed", stats.Completed),
		toPayload("pending", stats.Pending),
		toPayload("overdue", stats.Overdue))
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()

	fields := validateStruct(&request)
	dueDate, parsed := dto.ParseDate(request.DueDate)
	if request.DueDate != "" && !parsed {
		fields = append(fields, service.FieldError{Field: "dueDate", Message: "Valid due date is required"})
	}
	if len(fields) > 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("operation", "create_task"),
			zap.Int("fields", len(fields)),
			zap.String("client_ip", r.RemoteAddr))
		respondValidation(w, r, fields, "create_task")
		return
	}

	created, err := h.TaskService.Create(r.Context(), u.ID, service.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		DueDate:     dueDate,
		Priority:    request.Priority,
		Tags:        request.Tags,
		Attachments: request.Attachments,
	})
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseSuccess(w, http.StatusCreated,
		toPayload("message", "Task created successfully"),
		toPayload("task", created))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "get_task")
	if !ok {
		return
	}

	found, err := h.TaskService.Get(r.Context(), u.ID, id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	responseSuccess(w, http.StatusOK, toPayload("task", found))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "update_task")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()

	fields := validateStruct(&request)
	in := service.UpdateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		Status:      request.Status,
		Priority:    request.Priority,
	}
	if request.DueDate != nil {
		dueDate, parsed := dto.ParseDate(*request.DueDate)
		if !parsed {
			fields = append(fields, service.FieldError{Field: "dueDate", Message: "Valid due date is required"})
		}
		in.DueDate = &dueDate
	}
	if request.Tags != nil {
		in.Tags = *request.Tags
		if in.Tags == nil {
			in.Tags = []string{}
		}
	}
	if request.Attachments != nil {
		in.Attachments = *request.Attachments
		if in.Attachments == nil {
			in.Attachments = []task.Attachment{}
		}
	}
	if len(fields) > 0 {
		respondValidation(w, r, fields, "update_task")
		return
	}

	updated, err := h.TaskService.Update(r.Context(), u.ID, id, in)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseSuccess(w, http.StatusOK,
		toPayload("message", "Task updated successfully"),
		toPayload("task", updated))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "delete_task")
	if !ok {
		return
	}

	if err := h.TaskService.Delete(r.Context(), u.ID, id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Int("http_status", http.StatusOK))

	responseSuccess(w, http.StatusOK, toPayload("message", "Task deleted successfully"))
}
