package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mentorlog-backend/internal/handlers"
	"mentorlog-backend/internal/middleware"
	"mentorlog-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	sessionHandler *handlers.StudySessionHandler,
	reportHandler *handlers.ReportHandler,
	weeklyHandler *handlers.WeeklyReportHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Frame uploads (30 req/min per user)
	frameLimiter := middleware.NewRateLimiter(30, time.Minute)
	// Manual weekly generation (5 req/min per user)
	generateLimiter := middleware.NewRateLimiter(5, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Study Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", sessionHandler.Start)
			r.Get("/mine", sessionHandler.ListMine)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/end", sessionHandler.End)
			r.Post("/{id}/resume", sessionHandler.Resume)
			r.Post("/{id}/notes", sessionHandler.AddNote)
			r.Post("/{id}/questions", sessionHandler.AddQuestion)
			r.Post("/{id}/distractions", sessionHandler.AddDistraction)
			r.Post("/{id}/feedback", sessionHandler.AddSelfFeedback)
			r.With(frameLimiter.Middleware).Post("/{id}/frames", sessionHandler.AnalyzeFrame)
		})

		// ──── Session Report Routes ────
		r.Route("/reports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", reportHandler.Get)
			r.Post("/{id}/feedback", reportHandler.AddMentorFeedback)
			r.Post("/{id}/distractions/{index}/feedback", reportHandler.AddSelfFeedback)
		})

		// ──── Pairing Scoped Reads ────
		r.Route("/pairings/{pairingId}", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/sessions", sessionHandler.ListByPairing)
			r.Get("/reports", reportHandler.ListByPairing)
			r.Get("/weekly-reports", weeklyHandler.List)
			r.Get("/weekly-reports/latest", weeklyHandler.Latest)
		})

		// ──── Weekly Report Generation ────
		r.Route("/weekly-reports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(generateLimiter.Middleware).Post("/generate", weeklyHandler.Generate)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
