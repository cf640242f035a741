package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/pool-booking/internal/application"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Pools    *PoolHandler
	Bookings *BookingHandler
	Users    *UserHandler

	// Sessions authenticates requests for every route except /login.
	Sessions SessionValidator
	Logger   *slog.Logger

	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := func(next http.Handler) http.Handler { return next }
	if cfg.Sessions != nil {
		authed = RequireSession(cfg.Sessions, cfg.Logger)
	}
	adminOnly := RequireRole(cfg.Logger, application.RoleAdmin)
	staffOnly := RequireRole(cfg.Logger, application.RoleAdmin, application.RoleMaintainer)

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		logout := chain(http.HandlerFunc(cfg.Auth.Logout), authed)
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			logout.ServeHTTP(w, r)
		})
	}

	if cfg.Pools != nil {
		listPools := chain(http.HandlerFunc(cfg.Pools.List), authed)
		createPool := chain(http.HandlerFunc(cfg.Pools.Create), authed, adminOnly)
		getPool := chain(http.HandlerFunc(cfg.Pools.Get), authed)
		updatePool := chain(http.HandlerFunc(cfg.Pools.Update), authed, adminOnly)
		deletePool := chain(http.HandlerFunc(cfg.Pools.Delete), authed, adminOnly)
		assignEmployee := chain(http.HandlerFunc(cfg.Pools.AssignEmployee), authed, adminOnly)
		removeEmployee := chain(http.HandlerFunc(cfg.Pools.RemoveEmployee), authed, adminOnly)
		updateStatus := chain(http.HandlerFunc(cfg.Pools.UpdateStatus), authed, adminOnly)

		mux.HandleFunc("/pools", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				listPools.ServeHTTP(w, r)
			case http.MethodPost:
				createPool.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/pools/", func(w http.ResponseWriter, r *http.Request) {
			segments := splitPath(strings.TrimPrefix(r.URL.Path, "/pools/"))
			if len(segments) == 0 {
				http.NotFound(w, r)
				return
			}

			r = r.WithContext(ContextWithPoolID(r.Context(), segments[0]))

			switch {
			case len(segments) == 1:
				switch r.Method {
				case http.MethodGet:
					getPool.ServeHTTP(w, r)
				case http.MethodPatch:
					updatePool.ServeHTTP(w, r)
				case http.MethodDelete:
					deletePool.ServeHTTP(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
				}
			case len(segments) == 2 && segments[1] == "update-status":
				if r.Method != http.MethodPatch {
					methodNotAllowed(w, http.MethodPatch)
					return
				}
				updateStatus.ServeHTTP(w, r)
			case len(segments) == 3 && segments[1] == "assign-employee":
				if r.Method != http.MethodPatch {
					methodNotAllowed(w, http.MethodPatch)
					return
				}
				r = r.WithContext(ContextWithEmployeeID(r.Context(), segments[2]))
				assignEmployee.ServeHTTP(w, r)
			case len(segments) == 3 && segments[1] == "remove-employee":
				if r.Method != http.MethodPatch {
					methodNotAllowed(w, http.MethodPatch)
					return
				}
				r = r.WithContext(ContextWithEmployeeID(r.Context(), segments[2]))
				removeEmployee.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Bookings != nil {
		listBookings := chain(http.HandlerFunc(cfg.Bookings.List), authed, adminOnly)
		createBooking := chain(http.HandlerFunc(cfg.Bookings.Create), authed, adminOnly)
		byMonth := chain(http.HandlerFunc(cfg.Bookings.ByMonth), authed, staffOnly)
		getBooking := chain(http.HandlerFunc(cfg.Bookings.Get), authed, staffOnly)
		updateBooking := chain(http.HandlerFunc(cfg.Bookings.Update), authed, adminOnly)
		deleteBooking := chain(http.HandlerFunc(cfg.Bookings.Delete), authed, adminOnly)

		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				listBookings.ServeHTTP(w, r)
			case http.MethodPost:
				createBooking.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			segments := splitPath(strings.TrimPrefix(r.URL.Path, "/bookings/"))
			if len(segments) != 1 {
				http.NotFound(w, r)
				return
			}

			if segments[0] == "by-month" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				byMonth.ServeHTTP(w, r)
				return
			}

			r = r.WithContext(ContextWithBookingID(r.Context(), segments[0]))
			switch r.Method {
			case http.MethodGet:
				getBooking.ServeHTTP(w, r)
			case http.MethodPatch:
				updateBooking.ServeHTTP(w, r)
			case http.MethodDelete:
				deleteBooking.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	if cfg.Users != nil {
		listUsers := chain(http.HandlerFunc(cfg.Users.List), authed, adminOnly)
		createUser := chain(http.HandlerFunc(cfg.Users.Create), authed, adminOnly)
		getUser := chain(http.HandlerFunc(cfg.Users.Get), authed)
		updateUser := chain(http.HandlerFunc(cfg.Users.Update), authed, adminOnly)
		deleteUser := chain(http.HandlerFunc(cfg.Users.Delete), authed, adminOnly)

		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				listUsers.ServeHTTP(w, r)
			case http.MethodPost:
				createUser.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			segments := splitPath(strings.TrimPrefix(r.URL.Path, "/users/"))
			if len(segments) != 1 {
				http.NotFound(w, r)
				return
			}

			r = r.WithContext(ContextWithUserID(r.Context(), segments[0]))
			switch r.Method {
			case http.MethodGet:
				getUser.ServeHTTP(w, r)
			case http.MethodPatch:
				updateUser.ServeHTTP(w, r)
			case http.MethodDelete:
				deleteUser.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// chain wraps the handler with the given middleware, outermost first.
func chain(handler http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}
	return handler
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
