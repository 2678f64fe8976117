package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/collab/api/handler"
)

type Handlers struct {
	Synergy      *apiHandler.SynergyHandler
	Deadline     *apiHandler.DeadlineHandler
	Invitation   *apiHandler.InvitationHandler
	Notification *apiHandler.NotificationHandler
	Dashboard    *apiHandler.DashboardHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Protected routes
	r.GET("/api/v1/synergy", authMiddleware(handlers.Synergy.Leaderboard))
	r.POST("/api/v1/synergy/refresh", authMiddleware(handlers.Synergy.Refresh))
	r.POST("/api/v1/synergy/{userId}", authMiddleware(handlers.Synergy.Compute))

	r.POST("/api/v1/deadlines/scan", authMiddleware(handlers.Deadline.Scan))

	r.POST("/api/v1/projects/{id}/invitations", authMiddleware(handlers.Invitation.Create))
	r.GET("/api/v1/projects/{id}/invitations", authMiddleware(handlers.Invitation.ListForProject))
	r.GET("/api/v1/invitations", authMiddleware(handlers.Invitation.ListMine))
	r.POST("/api/v1/invitations/{id}/accept", authMiddleware(handlers.Invitation.Accept))
	r.POST("/api/v1/invitations/{id}/decline", authMiddleware(handlers.Invitation.Decline))

	r.GET("/api/v1/notifications", authMiddleware(handlers.Notification.List))
	r.POST("/api/v1/notifications/{id}/read", authMiddleware(handlers.Notification.MarkRead))

	r.GET("/api/v1/dashboard", authMiddleware(handlers.Dashboard.Stats))

	return r
}
