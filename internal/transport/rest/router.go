package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"surveyflow/internal/logger"
	"surveyflow/internal/service"
	"surveyflow/internal/transport/rest/handler"
	"surveyflow/internal/transport/rest/middleware"
	"surveyflow/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService   *service.AuthService
	SurveyService *service.SurveyService
	QuotaService  *service.QuotaService
	FlowService   *service.FlowService
	WSHub         *ws.Hub
	Logger        *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	quotaHandler := handler.NewQuotaHandler(c.QuotaService)
	flowHandler := handler.NewFlowHandler(c.FlowService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)
	if c.Logger != nil {
		r.Use(logger.RequestLogger(c.Logger))
	}

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Respondent routes: the response-submission boundary
	v1.HandleFunc("/surveys/{surveyId}/sessions", flowHandler.StartSession).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/answers", flowHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/complete", flowHandler.Complete).Methods("POST", "OPTIONS")

	// WebSocket monitor (token in query param)
	v1.HandleFunc("/ws/surveys/{surveyId}/monitor", wsHandler.MonitorWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes (definition store and quota administration)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}/quotas", quotaHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}/quotas", quotaHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}/quotas/interlocked", quotaHandler.CreateInterlocked).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/quotas/{quotaId}/reset", quotaHandler.Reset).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
