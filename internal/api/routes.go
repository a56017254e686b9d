package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/ads-console/internal/auth"
	"github.com/ignite/ads-console/internal/config"
)

// SetupRoutes configures all API routes. Everything under /api requires
// a session; /health and /auth are open.
func SetupRoutes(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	// CORS - allow credentials for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Post("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/me", authManager.HandleMe)
	}

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.RequireSession)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}/hierarchy", h.GetAccountHierarchy)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Get("/{id}", h.GetCampaign)
			r.Patch("/{id}", h.UpdateCampaign)
			r.Get("/{id}/metrics", h.GetCampaignMetrics)
		})

		r.Get("/ad-groups", h.ListAdGroups)
		r.Get("/keywords", h.ListKeywords)

		r.Get("/google-ads/keywords", h.GetKeywordIdeas)
		r.Post("/keyword-factory", h.RunKeywordFactory)

		r.Route("/saved-views", func(r chi.Router) {
			r.Get("/", h.ListSavedViews)
			r.Post("/", h.CreateSavedView)
			r.Get("/{id}", h.GetSavedView)
			r.Put("/{id}", h.UpdateSavedView)
			r.Delete("/{id}", h.DeleteSavedView)
		})

		r.Route("/automated-rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/", h.CreateRule)
			r.Get("/{id}", h.GetRule)
			r.Put("/{id}", h.UpdateRule)
			r.Delete("/{id}", h.DeleteRule)
			r.Post("/{id}/run", h.RunRule)
			r.Get("/{id}/executions", h.ListRuleExecutions)
		})

		r.Get("/dashboard/overview", h.GetDashboardOverview)

		r.Post("/serp/analyze", h.AnalyzeSERP)
		r.Post("/landing-page/analyze", h.AnalyzeLandingPage)

		r.Route("/assistant", func(r chi.Router) {
			r.Post("/chat", h.AssistantChat)
			r.Get("/conversations/{id}", h.GetConversation)
		})

		r.Get("/queue/status", h.GetQueueStatus)
		r.Get("/activity-logs", h.ListActivityLogs)
	})

	return r
}
