package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/magazinehq/magazine-api/api/swagger"
	"github.com/magazinehq/magazine-api/internal/handler"
	"github.com/magazinehq/magazine-api/internal/middleware"
	"github.com/magazinehq/magazine-api/internal/models"
	"github.com/magazinehq/magazine-api/internal/repository"
	"github.com/magazinehq/magazine-api/internal/service"
	"github.com/magazinehq/magazine-api/pkg/cache"
	"github.com/magazinehq/magazine-api/pkg/config"
	"github.com/magazinehq/magazine-api/pkg/database"
	"github.com/magazinehq/magazine-api/pkg/export"
	"github.com/magazinehq/magazine-api/pkg/logger"
	corsmiddleware "github.com/magazinehq/magazine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/magazinehq/magazine-api/pkg/middleware/requestid"
	"github.com/magazinehq/magazine-api/pkg/storage"
)

// @title Magazine API
// @version 1.0.0
// @description Content management backend for a multi-author online magazine
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API works without Redis, listings just skip the cache.
		logr.Sugar().Warnw("redis unavailable, post cache disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads storage", "error", err)
	}
	exports, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	contactRepo := repository.NewContactRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	tokenSvc, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	if err != nil {
		logr.Sugar().Fatalw("failed to init token service", "error", err)
	}

	guard := service.NewGuard(userRepo)
	metricsSvc := service.NewMetricsService()
	refreshSvc := service.NewRefreshTokenService(tokenRepo, userRepo, cfg.JWT.RefreshTokenExpiry, logr)
	authSvc := service.NewAuthService(userRepo, roleRepo, tokenSvc, refreshSvc, validate, logr)
	authorSvc := service.NewAuthorService(userRepo, guard, refreshSvc, uploads, validate, logr)
	roleSvc := service.NewRoleService(roleRepo, validate, logr)
	postSvc := service.NewPostService(postRepo, userRepo, categoryRepo, cacheRepo, guard, uploads, metricsSvc, cfg.Posts.CacheTTL, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, postRepo, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, postRepo, userRepo, guard, validate, logr)
	likeSvc := service.NewLikeService(likeRepo, postRepo, commentRepo, userRepo, logr)
	contactSvc := service.NewContactService(contactRepo, validate, logr)
	exportSvc := service.NewExportService(postRepo, export.NewCSVExporter(), export.NewPDFExporter(), exports, logr)

	authHandler := handler.NewAuthHandler(authSvc, cfg.JWT)
	authorHandler := handler.NewAuthorHandler(authorSvc, cfg.Uploads.AllowedMIMEs)
	roleHandler := handler.NewRoleHandler(roleSvc)
	postHandler := handler.NewPostHandler(postSvc, cfg.Uploads.AllowedMIMEs)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	likeHandler := handler.NewLikeHandler(likeSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	authRequired := middleware.JWT(tokenSvc, userRepo)
	authOptional := middleware.OptionalJWT(tokenSvc, userRepo)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	editorDesk := middleware.RequireRoles(models.RoleEditor, models.RoleAdmin)
	authorDesk := middleware.RequireRoles(models.RoleAuthor, models.RoleEditor, models.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.Static("/uploads", cfg.Uploads.Dir)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh-token", authHandler.Refresh)
		auth.POST("/logout", authOptional, authHandler.Logout)
	}

	authors := api.Group("/authors")
	{
		authors.GET("", authorHandler.ListAuthors)
		authors.GET("/users", authRequired, adminOnly, authorHandler.ListUsers)
		authors.GET("/:username", authorHandler.GetByUsername)
		authors.PUT("/:username", authRequired, authorHandler.UpdateProfile)
		authors.POST("/:username/make-author", authRequired, adminOnly, authorHandler.MakeAuthor)
		authors.POST("/:username/make-editor", authRequired, adminOnly, authorHandler.MakeEditor)
		authors.POST("/:username/deactivate", authRequired, authorHandler.Deactivate)
		authors.DELETE("/:username", authRequired, adminOnly, authorHandler.Delete)
	}

	roles := api.Group("/roles", authRequired, adminOnly)
	{
		roles.GET("", roleHandler.List)
		roles.POST("", roleHandler.Create)
		roles.PUT("/:name", roleHandler.Rename)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", postHandler.List)
		posts.GET("/recent", postHandler.ListRecent)
		posts.GET("/random", postHandler.ListRandom)
		posts.GET("/deactivated", authRequired, editorDesk, postHandler.ListDeactivated)
		posts.GET("/category/:category", postHandler.ListByCategory)
		posts.GET("/category/:category/count", postHandler.CountByCategory)
		posts.GET("/author/:username", postHandler.ListByAuthor)
		posts.GET("/:id", postHandler.Get)
		posts.POST("", authRequired, authorDesk, postHandler.Create)
		posts.POST("/editor/:username", authRequired, editorDesk, postHandler.CreateForAuthor)
		posts.PUT("/:id", authRequired, authorDesk, postHandler.Update)
		posts.POST("/:id/deactivate", authRequired, authorDesk, postHandler.Deactivate)
		posts.POST("/:id/activate", authRequired, editorDesk, postHandler.Activate)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.List)
		categories.GET("/:id", categoryHandler.Get)
		categories.POST("", authRequired, editorDesk, categoryHandler.Create)
		categories.PUT("/:id", authRequired, editorDesk, categoryHandler.Update)
		categories.DELETE("/:id", authRequired, adminOnly, categoryHandler.Delete)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/post/:postId", commentHandler.ListByPost)
		comments.POST("/post/:postId", authRequired, commentHandler.Create)
		comments.PUT("/:id", authRequired, commentHandler.Update)
		comments.DELETE("/:id", authRequired, commentHandler.Delete)
	}

	likes := api.Group("/likes")
	{
		likes.GET("/post/:postId", likeHandler.PostLikers)
		likes.POST("/post/:postId", authRequired, likeHandler.TogglePost)
		likes.GET("/comment/:commentId", likeHandler.CommentLikers)
		likes.POST("/comment/:commentId", authRequired, likeHandler.ToggleComment)
	}

	contact := api.Group("/contact")
	{
		contact.POST("", contactHandler.Submit)
		contact.GET("", authRequired, adminOnly, contactHandler.List)
		contact.GET("/:id", authRequired, adminOnly, contactHandler.Get)
		contact.POST("/:id/read", authRequired, adminOnly, contactHandler.MarkRead)
	}

	if cfg.Exports.Enabled {
		exportsGroup := api.Group("/exports", authRequired, adminOnly)
		exportsGroup.GET("/posts.csv", exportHandler.PostsCSV)
		exportsGroup.GET("/posts.pdf", exportHandler.PostsPDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
