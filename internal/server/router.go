package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/handlers"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/store"
)

// Permissions required by each drink route.
const (
	PermissionReadDetail = "get:drinks-detail"
	PermissionCreate     = "post:drinks"
	PermissionUpdate     = "patch:drinks"
	PermissionDelete     = "delete:drinks"
)

func newRouter(db *gorm.DB, guard *auth.Guard) (http.Handler, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("server: resolve sql handle: %w", err)
	}
	drinks := handlers.New(store.NewDrinks(db))

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(recoverer)
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	applog.Debug(context.Background(), "registering http routes")
	r.Get("/healthz", handlers.Health(sqlDB))
	r.Get("/drinks", drinks.List)
	r.Method(http.MethodGet, "/drinks-detail", guard.RequirePermission(PermissionReadDetail, http.HandlerFunc(drinks.Detail)))
	r.Method(http.MethodPost, "/drinks", guard.RequirePermission(PermissionCreate, http.HandlerFunc(drinks.Create)))
	r.Method(http.MethodPatch, "/drinks/{id}", guard.RequirePermission(PermissionUpdate, http.HandlerFunc(drinks.Update)))
	r.Method(http.MethodDelete, "/drinks/{id}", guard.RequirePermission(PermissionDelete, http.HandlerFunc(drinks.Delete)))
	applog.Debug(context.Background(), "routes registered", "count", 6)

	return r, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}
		if status >= http.StatusInternalServerError {
			applog.Error(r.Context(), "request failed", args...)
			return
		}
		applog.Info(r.Context(), "request handled", args...)
	})
}

// recoverer turns a panic into the 500 envelope. It sits inside requestLogger
// so recovered requests are still logged with their final status.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			applog.Error(r.Context(), "panic recovered",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			handlers.WriteError(w, http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
