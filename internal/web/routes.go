package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vbartonek/face-attendance/internal/web/handlers"
	"github.com/vbartonek/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes(deps Deps) {
	validate := validator.New()

	// Create handlers
	identifyHandler := handlers.NewIdentifyHandler(deps.Service, validate, s.log)
	personsHandler := handlers.NewPersonsHandler(deps.Store, deps.Snapshot, deps.Index, validate, s.log)
	samplesHandler := handlers.NewSamplesHandler(deps.Store, deps.Snapshot, deps.Index, validate, s.log)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Events, s.log)
	statsHandler := handlers.NewStatsHandler(deps.Store, deps.Events, deps.Index, s.log)

	// Health check (no auth required)
	s.router.Get("/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKey(s.cfg.APIKey))

		// Matching
		r.Post("/identify", identifyHandler.Identify)
		r.Post("/checkin", identifyHandler.CheckIn)

		// Enrollment
		r.Route("/persons", func(r chi.Router) {
			r.Get("/", personsHandler.List)
			r.Post("/", personsHandler.Create)
			r.Get("/{id}", personsHandler.Get)
			r.Delete("/{id}", personsHandler.Delete)
			r.Post("/{id}/samples", samplesHandler.Create)
			r.Delete("/{id}/samples/{sid}", samplesHandler.Delete)
		})

		// Attendance log
		r.Get("/attendance", attendanceHandler.List)

		// Stats
		r.Get("/stats", statsHandler.Get)
	})
}
