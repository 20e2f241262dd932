package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prabidush11/Web-Development/internal/api/handlers"
	"github.com/prabidush11/Web-Development/internal/api/middleware"
	"github.com/prabidush11/Web-Development/internal/assets"
	"github.com/prabidush11/Web-Development/internal/crypto"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/internal/websocket"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Store      store.DataStore
	JWT        *crypto.JWTManager
	Uploader   assets.Uploader
	Seen       handlers.SeenReconciler
	Dispatcher handlers.Dispatcher

	// UploadDir is served under /uploads when set.
	UploadDir      string
	AllowedOrigins []string
	// MaxBodyBytes caps /api request bodies. Zero means no cap.
	MaxBodyBytes int64

	// SocketIO and Simple are optional live transports.
	SocketIO *websocket.SocketIOServer
	Simple   *websocket.SimpleServer
}

// NewRouter builds the HTTP router.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.UploadDir != "" {
		router.Static(assets.URLPrefix, deps.UploadDir)
	}

	authHandler := handlers.NewAuthHandler(deps.Store, deps.JWT, deps.Uploader)
	messageHandler := handlers.NewMessageHandler(deps.Store, deps.Seen, deps.Dispatcher, deps.Uploader)
	requireAuth := middleware.AuthMiddleware(deps.JWT, deps.Store)

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.BodyLimit(deps.MaxBodyBytes))
	{
		apiGroup.GET("/status", handlers.Status)
		apiGroup.GET("/health", handlers.Health(deps.Store))
	}

	// Public routes (no auth required)
	auth := apiGroup.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes (auth required)
	protectedAuth := auth.Group("")
	protectedAuth.Use(requireAuth)
	{
		protectedAuth.GET("/check", authHandler.Check)
		protectedAuth.PUT("/update-profile", authHandler.UpdateProfile)
	}

	messages := apiGroup.Group("/messages")
	messages.Use(requireAuth)
	{
		messages.GET("/users", messageHandler.ListUsers)
		messages.GET("/:id", messageHandler.GetMessages)
		messages.PUT("/mark/:id", messageHandler.MarkSeen)
		messages.POST("/send/:id", messageHandler.SendMessage)
	}

	// Live transports authenticate during the handshake.
	if deps.SocketIO != nil {
		router.Any(websocket.SocketIOPath, deps.SocketIO.HandleSocketIO())
		router.Any(websocket.SocketIOPath+"/*any", deps.SocketIO.HandleSocketIO())
	}
	if deps.Simple != nil {
		router.GET("/ws", deps.Simple.HandleWebSocket)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})

	return router
}

// corsConfig allows any origin when origins is empty. Credentials are only
// allowed for an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "token"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
