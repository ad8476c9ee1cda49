// Package httpapi exposes the services over a JSON REST API built on
// gin. Handlers parse and validate transport concerns only; every
// permission decision lives in the service and access packages.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foresightlab/signalhub/internal/auth"
	"github.com/foresightlab/signalhub/internal/middleware"
	"github.com/foresightlab/signalhub/internal/service"
)

// API bundles the services behind the HTTP handlers.
type API struct {
	signals *service.SignalService
	trends  *service.TrendService
	groups  *service.GroupService
}

// New creates the API around the given services.
func New(signals *service.SignalService, trends *service.TrendService, groups *service.GroupService) *API {
	return &API{signals: signals, trends: trends, groups: groups}
}

// Router builds the gin engine with the full middleware chain and all
// routes mounted.
func (a *API) Router(jwtManager *auth.JWTManager, apiKeys *auth.APIKeyVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging(), middleware.Metrics())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1", middleware.RequireAuth(jwtManager, apiKeys))

	signals := api.Group("/signals")
	signals.GET("/search", a.searchSignals)
	signals.GET("/:id", a.getSignal)
	signals.POST("", a.createSignal)
	signals.PUT("/:id", a.updateSignal)
	signals.DELETE("/:id", a.deleteSignal)

	trends := api.Group("/trends")
	trends.GET("/search", a.searchTrends)
	trends.GET("/:id", a.getTrend)
	trends.POST("", a.createTrend)
	trends.PUT("/:id", a.updateTrend)
	trends.DELETE("/:id", a.deleteTrend)

	favourites := api.Group("/favourites")
	favourites.GET("", a.listFavourites)
	favourites.POST("/:signalID", a.toggleFavourite)

	groups := api.Group("/groups")
	groups.GET("", a.listGroups)
	groups.POST("", a.createGroup)
	groups.GET("/:id", a.getGroup)
	groups.DELETE("/:id", a.deleteGroup)
	groups.GET("/:id/audit", a.groupAudit)
	groups.GET("/:id/members", a.groupMembers)
	groups.POST("/:id/members/:userID", a.addMember)
	groups.DELETE("/:id/members/:userID", a.removeMember)
	groups.POST("/:id/admins/:userID", a.addAdmin)
	groups.DELETE("/:id/admins/:userID", a.removeAdmin)
	groups.POST("/:id/signals/:signalID", a.addGroupSignal)
	groups.DELETE("/:id/signals/:signalID", a.removeGroupSignal)
	groups.PUT("/:id/signals/:signalID/collaborators", a.setCollaborators)

	return router
}
