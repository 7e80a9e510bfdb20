package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth  *AuthHandler
	Users *UserHandler
	Tasks *TaskHandler

	// Authenticate wraps routes that require a valid access token.
	Authenticate func(http.Handler) http.Handler

	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(fn http.HandlerFunc) http.HandlerFunc {
		if cfg.Authenticate == nil {
			return fn
		}
		wrapped := cfg.Authenticate(fn)
		return wrapped.ServeHTTP
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/v1/register", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
		mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Refresh(w, r)
		})
		mux.HandleFunc("/api/v1/logout", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		}))
		mux.HandleFunc("/api/v1/me", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Auth.Me(w, r)
		}))
	}

	if cfg.Users != nil {
		mux.HandleFunc("/api/users/me", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.GetProfile(w, r)
			case http.MethodPut:
				cfg.Users.UpdateProfile(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		}))
		mux.HandleFunc("/api/users/me/preferences", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.GetPreferences(w, r)
			case http.MethodPut:
				cfg.Users.UpdatePreferences(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		}))
	}

	if cfg.Tasks != nil {
		// /api/{userId}/tasks, /api/{userId}/tasks/{taskId},
		// /api/{userId}/tasks/{taskId}/complete
		mux.HandleFunc("/api/", protect(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/")
			segments := strings.Split(strings.Trim(rest, "/"), "/")
			if len(segments) < 2 || segments[0] == "" || segments[1] != "tasks" {
				http.NotFound(w, r)
				return
			}

			ctx := ContextWithPathUserID(r.Context(), segments[0])
			r = r.WithContext(ctx)

			switch len(segments) {
			case 2:
				switch r.Method {
				case http.MethodGet:
					cfg.Tasks.List(w, r)
				case http.MethodPost:
					cfg.Tasks.Create(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPost)
				}
			case 3:
				r = r.WithContext(ContextWithTaskID(r.Context(), segments[2]))
				switch r.Method {
				case http.MethodGet:
					cfg.Tasks.Get(w, r)
				case http.MethodPut:
					cfg.Tasks.Update(w, r)
				case http.MethodDelete:
					cfg.Tasks.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case 4:
				if segments[3] != "complete" {
					http.NotFound(w, r)
					return
				}
				r = r.WithContext(ContextWithTaskID(r.Context(), segments[2]))
				if r.Method != http.MethodPatch {
					methodNotAllowed(w, http.MethodPatch)
					return
				}
				cfg.Tasks.Toggle(w, r)
			default:
				http.NotFound(w, r)
			}
		}))
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

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
