package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/freedeaths/SUT-OpenAPI-Blog/config"
	"github.com/freedeaths/SUT-OpenAPI-Blog/controllers"
	"github.com/freedeaths/SUT-OpenAPI-Blog/engine"
	"github.com/freedeaths/SUT-OpenAPI-Blog/middleware"
	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
	"github.com/freedeaths/SUT-OpenAPI-Blog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(store storage.Store, eng *engine.Engine) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(store)
	postController := controllers.NewPostController(eng)
	commentController := controllers.NewCommentController(eng)
	replyController := controllers.NewReplyController(eng)
	tagController := controllers.NewTagController(eng)
	reactionController := controllers.NewReactionController(eng)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)
	authGroup.POST("/deactivate", middleware.AuthRequired(), authController.Deactivate)

	// Reads work for anonymous callers; a bearer token widens visibility to
	// the caller's own drafts and hidden content.
	public := api.Group("")
	public.Use(middleware.OptionalAuth())
	public.GET("/posts", postController.ListPosts)
	public.GET("/posts/:id", postController.GetPost)
	public.GET("/posts/:id/comments", commentController.ListComments)
	public.GET("/posts/:id/tags", tagController.PostTags)
	public.GET("/comments/:id/replies", replyController.ListReplies)
	public.GET("/tags", tagController.ListTags)
	public.GET("/tags/:id", tagController.GetTag)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.PATCH("/posts/:id/status", postController.UpdatePostStatus)
	protected.DELETE("/posts/:id", postController.DeletePost)

	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.PATCH("/comments/:id/status", commentController.UpdateCommentStatus)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	protected.POST("/comments/:id/replies", replyController.CreateReply)
	protected.PUT("/replies/:id", replyController.UpdateReply)
	protected.PATCH("/replies/:id/status", replyController.UpdateReplyStatus)
	protected.DELETE("/replies/:id", replyController.DeleteReply)

	protected.POST("/tags", tagController.CreateTag)
	protected.PATCH("/tags/:id", tagController.UpdateTag)
	protected.DELETE("/tags/:id", tagController.DeleteTag)
	protected.POST("/posts/:id/tags/:tagID", tagController.AttachTag)
	protected.DELETE("/posts/:id/tags/:tagID", tagController.DetachTag)

	protected.POST("/reactions", reactionController.React)
	protected.DELETE("/reactions", reactionController.Unreact)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
