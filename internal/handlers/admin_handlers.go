package handlers

import (
	"net/http"
	"time"

	"taskFlow/internal/handlers/dto"
	"taskFlow/internal/logger"
	"taskFlow/internal/models/user"
	"taskFlow/internal/service"

	"go.uber.org/zap"
)

const (
	msgUserCreatedSent          = "User created successfully and welcome email sent"
	msgUserCreatedFailed        = "User created successfully (welcome email could not be sent - check server logs for credentials)"
	msgUserCreatedNotConfigured = "User created successfully (email not configured - check server logs for credentials)"
)

type AdminHandler struct {
	AdminService AdminService
}

func NewAdminHandler(adminService AdminService) *AdminHandler {
	return &AdminHandler{AdminService: adminService}
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateUserRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()

	if fields := validateStruct(&request); len(fields) > 0 {
		respondValidation(w, r, fields, "admin_create_user")
		return
	}

	created, err := h.AdminService.CreateUser(r.Context(), service.CreateUserInput{
		Name:  request.Name,
		Email: request.Email,
		Role:  user.Role(request.Role),
	})
	if err != nil {
		handleError(w, r, err, "admin_create_user")
		return
	}

	message := msgUserCreatedNotConfigured
	switch created.EmailStatus {
	case service.EmailSent:
		message = msgUserCreatedSent
	case service.EmailFailed:
		message = msgUserCreatedFailed
	}

	logger.Info("HTTP_OUT: Пользователь создан администратором",
		zap.String("user_id", created.User.ID.String()),
		zap.String("email_status", created.EmailStatus),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	payload := []Payload{
		toPayload("message", message),
		toPayload("user", created.User),
		toPayload("emailStatus", created.EmailStatus),
	}
	if created.TempPassword != "" {
		payload = append(payload, toPayload("tempPassword", created.TempPassword))
	}
	responseSuccess(w, http.StatusCreated, payload...)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var fields []service.FieldError
	query := service.UserQuery{
		Page:   queryInt(r, "page", &fields),
		Limit:  queryInt(r, "limit", &fields),
		Status: r.URL.Query().Get("status"),
		Role:   r.URL.Query().Get("role"),
	}
	if len(fields) > 0 {
		respondValidation(w, r, fields, "admin_list_users")
		return
	}

	page, err := h.AdminService.ListUsers(r.Context(), query)
	if err != nil {
		handleError(w, r, err, "admin_list_users")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("users", page.Users),
		toPayload("pagination", page.Pagination))
}

func (h *AdminHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var fields []service.FieldError
	query := service.AdminTaskQuery{
		Page:     queryInt(r, "page", &fields),
		Limit:    queryInt(r, "limit", &fields),
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		UserID:   queryUUID(r, "userId", &fields),
	}
	if len(fields) > 0 {
		respondValidation(w, r, fields, "admin_list_tasks")
		return
	}

	page, err := h.AdminService.ListTasks(r.Context(), query)
	if err != nil {
		handleError(w, r, err, "admin_list_tasks")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("tasks", page.Tasks),
		toPayload("pagination", page.Pagination))
}

func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	var fields []service.FieldError
	query := service.AuditQuery{
		Page:     queryInt(r, "page", &fields),
		Limit:    queryInt(r, "limit", &fields),
		Action:   r.URL.Query().Get("action"),
		Resource: r.URL.Query().Get("resource"),
		UserID:   queryUUID(r, "userId", &fields),
	}
	if len(fields) > 0 {
		respondValidation(w, r, fields, "admin_list_audit")
		return
	}

	page, err := h.AdminService.ListAuditLogs(r.Context(), query)
	if err != nil {
		handleError(w, r, err, "admin_list_audit")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("logs", page.Logs),
		toPayload("pagination", page.Pagination))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.AdminService.Stats(r.Context())
	if err != nil {
		handleError(w, r, err, "admin_stats")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("totalUsers", stats.TotalUsers),
		toPayload("activeUsers", stats.ActiveUsers),
		toPayload("inactiveUsers", stats.InactiveUsers),
		toPayload("totalTasks", stats.TotalTasks),
		toPayload("completedTasks", stats.CompletedTasks),
		toPayload("pendingTasks", stats.PendingTasks),
		toPayload("overdueTasks", stats.OverdueTasks))
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "admin_update_status")
	if !ok {
		return
	}

	var request dto.UpdateStatusRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if fields := validateStruct(&request); len(fields) > 0 {
		respondValidation(w, r, fields, "admin_update_status")
		return
	}

	updated, err := h.AdminService.UpdateUserStatus(r.Context(), actor.ID, id, user.Status(request.Status))
	if err != nil {
		handleError(w, r, err, "admin_update_status")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("message", "User status updated successfully"),
		toPayload("user", updated))
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "admin_update_role")
	if !ok {
		return
	}

	var request dto.UpdateRoleRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if fields := validateStruct(&request); len(fields) > 0 {
		respondValidation(w, r, fields, "admin_update_role")
		return
	}

	updated, err := h.AdminService.UpdateUserRole(r.Context(), actor.ID, id, user.Role(request.Role))
	if err != nil {
		handleError(w, r, err, "admin_update_role")
		return
	}

	responseSuccess(w, http.StatusOK,
		toPayload("message", "User role updated successfully"),
		toPayload("user", updated))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "admin_delete_user")
	if !ok {
		return
	}

	if err := h.AdminService.DeleteUser(r.Context(), actor.ID, id); err != nil {
		handleError(w, r, err, "admin_delete_user")
		return
	}

	responseSuccess(w, http.StatusOK, toPayload("message", "User deleted successfully"))
}
