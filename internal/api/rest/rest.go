package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Community endpoints
		v1.GET("/communities", handler.ListCommunities)
		v1.GET("/communities/:id", handler.GetCommunity)
		v1.GET("/communities/:id/posts", handler.ListCommunityPosts)
		v1.GET("/communities/:id/membership", handler.GetMembership)
		v1.POST("/communities", handler.CreateCommunity)
		v1.POST("/communities/:id/join", handler.JoinCommunity)
		v1.POST("/communities/:id/leave", handler.LeaveCommunity)

		// Post endpoints
		v1.GET("/posts", handler.ListPosts)
		v1.GET("/posts/:id", handler.GetPost)
		v1.POST("/posts", handler.CreatePost)
		v1.GET("/feed", handler.GetFeed)

		// Ticketed event endpoints
		v1.GET("/events", handler.ListEvents)
		v1.GET("/events/:id", handler.GetEvent)
		v1.POST("/events", handler.CreateEvent)
		v1.POST("/events/:id/tickets", handler.BuyTicket)

		// Profile endpoints
		v1.GET("/profiles/:address", handler.GetProfile)
		v1.GET("/usernames/:username", handler.GetUsername)
		v1.POST("/profiles", handler.RegisterProfile)

		// Role endpoints
		v1.GET("/roles/:address", handler.GetRoleGrant)
	}
}
