package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sem0ark/projecthub/internal/auth"
	"github.com/sem0ark/projecthub/internal/blob"
	"github.com/sem0ark/projecthub/internal/handlers"
	"github.com/sem0ark/projecthub/internal/middleware"
	"github.com/sem0ark/projecthub/internal/store"
)

// Deps carries everything the handlers need, constructed once at process
// start and passed in explicitly.
type Deps struct {
	Users     *store.UserStore
	Projects  *store.ProjectStore
	Documents *store.DocumentStore
	Blobs     blob.Store
	Tokens    *auth.TokenManager
	LogoSize  int
}

func New(deps Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Access-Token", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandlers := handlers.NewAuth(deps.Users, deps.Tokens)
	projectHandlers := handlers.NewProjects(deps.Projects, deps.Users)
	documentHandlers := handlers.NewDocuments(deps.Projects, deps.Documents, deps.Blobs)
	logoHandlers := handlers.NewLogos(deps.Projects, deps.Blobs, deps.LogoSize)

	authenticated := middleware.Auth(deps.Tokens, deps.Users)

	r.GET("/health", handlers.HealthCheck)

	r.POST("/auth", authHandlers.Register)
	r.POST("/login", authHandlers.Login)
	r.POST("/login_form", authHandlers.LoginForm)

	projects := r.Group("/project", authenticated)
	{
		projects.POST("/", projectHandlers.Create)
		projects.GET("/", projectHandlers.List)
		projects.GET("/:project_id", projectHandlers.Get)
		projects.PUT("/:project_id", projectHandlers.Update)
		projects.DELETE("/:project_id", projectHandlers.Delete)
		projects.POST("/:project_id/invite", projectHandlers.Invite)

		projects.GET("/:project_id/documents", documentHandlers.List)
		projects.POST("/:project_id/documents", documentHandlers.Upload)

		projects.GET("/:project_id/logo", logoHandlers.Download)
		projects.PUT("/:project_id/logo", logoHandlers.Upload)
		projects.DELETE("/:project_id/logo", logoHandlers.Delete)
	}

	documents := r.Group("/document", authenticated)
	{
		documents.GET("/:document_id", documentHandlers.Download)
		documents.PUT("/:document_id", documentHandlers.Replace)
		documents.DELETE("/:document_id", documentHandlers.Delete)
	}

	return r
}
