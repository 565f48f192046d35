package router

import (
	"github.com/labstack/echo/v4"

	"tourhub/internal/adapter/api/handler"
	"tourhub/internal/adapter/api/middleware"
)

// SetupChatRouter registers the conversation and message endpoints.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.GET("", chatHandler.ListConversations)
	conversations.GET("/:id", chatHandler.GetConversation)
	conversations.PUT("/:id/read", chatHandler.MarkAsRead)

	conversations.GET("/:id/messages", chatHandler.GetMessages)
	conversations.POST("/:id/messages", chatHandler.SendMessage)
}
