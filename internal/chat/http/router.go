package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookieTTL    time.Duration

	store          store.Store
	UserService    *service.UserService
	ResetService   *service.ResetService
	DeviceService  *service.DeviceService
	HistoryService *service.HistoryService
	AdminService   *service.AdminService
}

func NewRouter(
	buildVersion string,
	cookieTTL time.Duration,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		cookieTTL:    cookieTTL,
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerHistory()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential endpoints carry strict per-IP limits to slow brute force.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(&RegisterHandler{UserService: r.UserService, CookieTTL: r.cookieTTL},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(&LoginHandler{UserService: r.UserService, CookieTTL: r.cookieTTL},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/request-password-reset",
		httpx.Chain(&RequestResetHandler{ResetService: r.ResetService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/reset-password",
		httpx.Chain(&ResetPasswordHandler{ResetService: r.ResetService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Account management endpoints revalidate identity per request, so a
	// moderate per-IP+account limit is enough.
	moderate := func(h http.Handler) http.Handler {
		return httpx.Chain(h, httpx.RateLimitByIPAndCookie(httpx.ModerateLimit, userEmailCookie))
	}
	r.Mux.Handle("POST /auth/change-password",
		moderate(&ChangePasswordHandler{UserService: r.UserService}))
	r.Mux.Handle("POST /auth/update-username",
		moderate(&UpdateUsernameHandler{UserService: r.UserService}))
	r.Mux.Handle("POST /auth/update-settings",
		moderate(&UpdateSettingsHandler{UserService: r.UserService}))
	r.Mux.Handle("POST /auth/user-profile",
		moderate(&ProfileHandler{UserService: r.UserService}))
	r.Mux.Handle("POST /auth/verify-device",
		moderate(&VerifyDeviceHandler{DeviceService: r.DeviceService}))
	r.Mux.Handle("POST /auth/delete-account",
		moderate(&DeleteAccountHandler{UserService: r.UserService}))
}

func (r *Router) registerHistory() {
	h := &HistoryHandler{HistoryService: r.HistoryService}

	lenient := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler, httpx.RateLimitByIP(httpx.LenientLimit))
	}

	r.Mux.Handle("POST /history/save", lenient(h.HandleSave))
	r.Mux.Handle("GET /history/get", lenient(h.HandleGet))
	r.Mux.Handle("GET /history/list", lenient(h.HandleList))
	r.Mux.Handle("DELETE /history/delete", lenient(h.HandleDelete))
	r.Mux.Handle("DELETE /history/delete-all", lenient(h.HandleDeleteAll))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			AdminGuard(r.AdminService),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /admin/users", secured(h.HandleListUsers))
	r.Mux.Handle("GET /admin/conversations", secured(h.HandleListConversations))
	r.Mux.Handle("DELETE /admin/delete-user", secured(h.HandleDeleteUser))
	r.Mux.Handle("DELETE /admin/delete-all-users", secured(h.HandleDeleteAllUsers))
	r.Mux.Handle("DELETE /admin/delete-all-chats", secured(h.HandleDeleteAllChats))
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
