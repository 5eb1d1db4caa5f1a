// ============================================================================
// internal/gateway/routes.go
// Chi router: middleware stack and the full REST surface
// ============================================================================

// Package gateway mounts the REST API. Route-level permission middleware
// reproduces the dashboard's affordance gating: a request the UI would hide
// the button for is rejected here before any backend call.
package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"classflow/internal/auth"
	"classflow/internal/gateway/handlers"
	"classflow/internal/permissions"
	"classflow/internal/shared"
	"classflow/internal/store"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(da store.DataAccess, authService *auth.Service, corsConfig shared.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsConfig.AllowedOrigins,
		AllowedMethods:   corsConfig.AllowedMethods,
		AllowedHeaders:   corsConfig.AllowedHeaders,
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           corsConfig.MaxAge,
	}))

	// 2. Initialize Handlers
	audit := &handlers.Auditor{DA: da}
	authHandler := &handlers.AuthHandler{Auth: authService}
	classHandler := &handlers.ClassHandler{DA: da, Audit: audit}
	studentHandler := &handlers.StudentHandler{DA: da, Audit: audit}
	teacherHandler := &handlers.TeacherHandler{DA: da, Audit: audit}
	cmHandler := &handlers.CMHandler{DA: da, Audit: audit}
	attendanceHandler := &handlers.AttendanceHandler{DA: da, Audit: audit}

	view := func(resource permissions.Resource) func(http.Handler) http.Handler {
		return RequirePermission(resource, permissions.OpView)
	}

	// 3. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authService))

			r.Get("/auth/validate", authHandler.ValidateToken)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Route("/classes", func(r chi.Router) {
				r.With(view(permissions.ResourceClasses)).Get("/", classHandler.ListClasses)
				r.With(RequirePermission(permissions.ResourceClasses, permissions.OpCreate)).Post("/", classHandler.CreateClass)
				r.With(view(permissions.ResourceClasses)).Get("/{id}", classHandler.GetClass)
				r.With(view(permissions.ResourceClasses)).Get("/{id}/details", classHandler.GetClassDetails)
				r.With(RequirePermission(permissions.ResourceClasses, permissions.OpEdit)).Put("/{id}", classHandler.UpdateClass)
				r.With(RequirePermission(permissions.ResourceClasses, permissions.OpDelete)).Delete("/{id}", classHandler.DeleteClass)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.With(view(permissions.ResourceClasses)).Get("/{classId}", classHandler.GetSessions)
				r.With(RequirePermission(permissions.ResourceClasses, permissions.OpEdit)).Put("/{classId}", classHandler.SaveSessions)
			})

			r.Route("/students", func(r chi.Router) {
				r.With(view(permissions.ResourceStudents)).Get("/", studentHandler.ListStudents)
				r.With(RequirePermission(permissions.ResourceStudents, permissions.OpCreate)).Post("/", studentHandler.CreateStudent)
				r.With(view(permissions.ResourceStudents)).Get("/{id}", studentHandler.GetStudent)
				r.With(RequirePermission(permissions.ResourceStudents, permissions.OpEdit)).Put("/{id}", studentHandler.UpdateStudent)
				r.With(RequirePermission(permissions.ResourceStudents, permissions.OpDelete)).Delete("/{id}", studentHandler.DeleteStudent)
			})

			r.Route("/teachers", func(r chi.Router) {
				r.With(view(permissions.ResourceTeachers)).Get("/", teacherHandler.ListTeachers)
				r.With(RequirePermission(permissions.ResourceTeachers, permissions.OpCreate)).Post("/", teacherHandler.CreateTeacher)
				r.With(view(permissions.ResourceTeachers)).Get("/{id}", teacherHandler.GetTeacher)
				r.With(RequirePermission(permissions.ResourceTeachers, permissions.OpEdit)).Put("/{id}", teacherHandler.UpdateTeacher)
				r.With(RequirePermission(permissions.ResourceTeachers, permissions.OpDelete)).Delete("/{id}", teacherHandler.DeleteTeacher)
			})

			r.Route("/cms", func(r chi.Router) {
				// Fixed segments before the {id} wildcard.
				r.With(view(permissions.ResourceCMs)).Get("/search", cmHandler.SearchCMs)
				r.With(view(permissions.ResourceCMs)).Get("/active", cmHandler.GetActiveCMs)

				r.With(view(permissions.ResourceCMs)).Get("/", cmHandler.ListCMs)
				r.With(RequirePermission(permissions.ResourceCMs, permissions.OpCreate)).Post("/", cmHandler.CreateCM)
				r.With(view(permissions.ResourceCMs)).Get("/{id}", cmHandler.GetCM)
				r.With(view(permissions.ResourceCMs)).Get("/{id}/details", cmHandler.GetCMDetails)
				r.With(view(permissions.ResourceCMs)).Get("/{id}/statistics", cmHandler.GetCMStatistics)
				r.With(RequirePermission(permissions.ResourceCMs, permissions.OpEdit)).Put("/{id}", cmHandler.UpdateCM)
				r.With(RequirePermission(permissions.ResourceCMs, permissions.OpDelete)).Delete("/{id}", cmHandler.DeleteCM)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.With(RequirePermission(permissions.ResourceAttendance, permissions.OpEdit)).Post("/", attendanceHandler.SaveAttendance)
				r.With(view(permissions.ResourceAttendance)).Get("/class/{classId}/stats", attendanceHandler.GetClassStats)
				r.With(view(permissions.ResourceAttendance)).Get("/class/{classId}/export", attendanceHandler.ExportAttendance)
				r.With(view(permissions.ResourceAttendance)).Get("/student/{studentId}/class/{classId}/stats", attendanceHandler.GetStudentStats)
				r.With(view(permissions.ResourceAttendance)).Get("/{classId}/{session}", attendanceHandler.GetAttendance)
			})

			r.Route("/comments", func(r chi.Router) {
				r.With(view(permissions.ResourceComments)).Get("/class/{classId}", attendanceHandler.GetComments)
				r.With(RequirePermission(permissions.ResourceComments, permissions.OpEdit)).Post("/", attendanceHandler.SaveComments)
			})
		})
	})

	return r
}
