package handler

import (
	"net/http"

	"github.com/jaekwang-park/task-api/internal/service"
)

// AdminHandler serves DELETE /api/v1/admin/tasks. The router mounts it only
// when the reset is enabled, behind the admin token check.
type AdminHandler struct {
	svc *service.TaskService
}

func NewAdminHandler(svc *service.TaskService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type clearResult struct {
	Deleted int64 `json:"deleted"`
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}

	n, err := h.svc.ClearAll(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: clearResult{Deleted: n}, Message: "all tasks cleared"})
}
