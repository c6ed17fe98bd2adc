package handler

import (
	"net/http"
	"strings"

	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type updateProfileRequest struct {
	Nickname        *string `json:"nickname"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// ServeHTTP serves /api/v1/users/me.
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.TrimRight(r.URL.Path, "/") != "/api/v1/users/me" {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleMe(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Me(r.Context(), middleware.GetUserID(r))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, profile)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), middleware.GetUserID(r), service.UpdateProfileInput{
		Nickname:        req.Nickname,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, profile)
}
