package http

import (
	"net/http"

	"github.com/jaekwang-park/task-api/internal/http/handler"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/service"
)

// Services are the application services the routes call into. Auth may be
// nil when no user pool is configured; the auth routes are then not mounted.
type Services struct {
	Tasks *service.TaskService
	Auth  *service.AuthService
	Users *service.UserService
}

type RouterOptions struct {
	// DB is pinged by /health; nil reports no database.
	DB           handler.Pinger
	CookieSecure bool
	// AdminToken enables DELETE /api/v1/admin/tasks when non-empty.
	AdminToken string
}

func NewRouter(svcs Services, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally outside /api/v1 for ALB health check compatibility
	mux.Handle("/health", handler.NewHealthHandler(opts.DB))

	tasks := handler.NewTaskHandler(svcs.Tasks)
	mux.Handle("/api/v1/tasks", tasks)
	mux.Handle("/api/v1/tasks/", tasks)

	mux.Handle("/api/v1/users/", handler.NewUserHandler(svcs.Users))

	if svcs.Auth != nil {
		mux.Handle("/api/v1/auth/", handler.NewAuthHandler(svcs.Auth, opts.CookieSecure))
	}

	if opts.AdminToken != "" {
		admin := middleware.RequireAdminToken(opts.AdminToken)(handler.NewAdminHandler(svcs.Tasks))
		mux.Handle("/api/v1/admin/tasks", admin)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	})

	return mux
}
