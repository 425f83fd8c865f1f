package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Log - неизменяемая запись аудита. Пользователь может быть уже удалён,
// поэтому UserID хранится без внешнего ключа.
type Log struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"userId" db:"user_id"`
	Action     Action     `json:"action" db:"action"`
	Resource   string     `json:"resource" db:"resource"`
	ResourceID *string    `json:"resourceId" db:"resource_id"`
	Details    string     `json:"details" db:"details"`
	IPAddress  string     `json:"ipAddress" db:"ip_address"`
	UserAgent  string     `json:"userAgent" db:"user_agent"`
	StatusCode int        `json:"statusCode" db:"status_code"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
}

type Action string

const ActionCreate Action = "CREATE"
const ActionUpdate Action = "UPDATE"
const ActionDelete Action = "DELETE"
const ActionRead Action = "READ"

const ResourceTask = "Task"
const ResourceUser = "User"
const ResourceAuth = "Auth"
const ResourceAdmin = "Admin"
const ResourceUnknown = "Unknown"

func ActionFromMethod(method string) Action {
	switch strings.ToUpper(method) {
	case "POST":
		return ActionCreate
	case "PUT", "PATCH":
		return ActionUpdate
	case "DELETE":
		return ActionDelete
	default:
		return ActionRead
	}
}

// ResourceFromPath определяет ресурс по пути запроса. Порядок проверок важен:
// /api/admin/users должен попасть в User, а не в Admin.
func ResourceFromPath(path string) string {
	switch {
	case strings.Contains(path, "/tasks"):
		return ResourceTask
	case strings.Contains(path, "/users"):
		return ResourceUser
	case strings.Contains(path, "/auth"):
		return ResourceAuth
	case strings.Contains(path, "/admin"):
		return ResourceAdmin
	default:
		return ResourceUnknown
	}
}
