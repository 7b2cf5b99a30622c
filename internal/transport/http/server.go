package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"remobot/internal/bootstrap"
	"remobot/internal/transport/http/handler"
	"remobot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(app.Logger),
		middleware.Recovery(app.Logger),
		cors.New(cors.Config{
			AllowOrigins:     app.Config.App.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(app.Auth)
	chatHandler := handler.NewChatHandler(app.History, app.Chat)

	router.GET("/healthz", healthHandler.Check)

	auth := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", auth, authHandler.Me)

	chatsGroup := v1.Group("/chats")
	chatsGroup.Use(auth)
	chatsGroup.GET("", chatHandler.List)
	chatsGroup.POST("", chatHandler.Save)
	chatsGroup.GET("/:id", chatHandler.Load)
	chatsGroup.PATCH("/:id", chatHandler.Rename)
	chatsGroup.PUT("/:id/messages", chatHandler.Replace)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(auth)
	chatGroup.GET("/models", chatHandler.Models)
	chatGroup.POST("/stream", chatHandler.Stream)

	return router
}
