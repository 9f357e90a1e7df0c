package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/handlers"
	httpMW "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/middleware"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *httpH.AuthHandler
	AssetHandler      *httpH.AssetHandler
	ContentHandler    *httpH.ContentHandler
	InstructorHandler *httpH.InstructorHandler
	CalendarHandler   *httpH.CalendarHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	am := cfg.AuthMiddleware

	// Mutations run RequireAuth then RequireAdmin so the admin check happens
	// before any body is parsed.
	admin := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if am == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{am.RequireAuth(), am.RequireAdmin(), h}
	}
	public := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if am == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{am.OptionalAuth(), h}
	}

	// Auth
	if cfg.AuthHandler != nil {
		api.POST("/auth/google", cfg.AuthHandler.GoogleSignIn)
		if am != nil {
			api.GET("/auth/me", am.RequireAuth(), cfg.AuthHandler.Me)
		}
	}

	// Assets
	if h := cfg.AssetHandler; h != nil {
		api.GET("/assets/images", public(h.ListImages)...)
		api.POST("/assets/images", admin(h.UploadImage)...)
		api.DELETE("/assets/images", admin(h.DeleteImage)...)
		api.GET("/assets/pdfs", public(h.ListPdfs)...)
		api.POST("/assets/pdfs", admin(h.UploadPdf)...)
		api.DELETE("/assets/pdfs", admin(h.DeletePdf)...)
	}

	// Content
	if h := cfg.ContentHandler; h != nil {
		api.GET("/content/:page", public(h.GetContent)...)
		api.GET("/content/:page/:field", public(h.GetField)...)
		api.POST("/content/:page", admin(h.SaveContent)...)
		api.PUT("/content/:page/:field", admin(h.SaveField)...)
	}

	// Instructors
	if h := cfg.InstructorHandler; h != nil {
		api.GET("/instructors/:page", public(h.List)...)
		api.POST("/instructors/:page", admin(h.Create)...)
		api.PUT("/instructors/:page/:id", admin(h.Update)...)
		api.PATCH("/instructors/:page/:id/toggle", admin(h.Toggle)...)
		api.DELETE("/instructors/:page/:id", admin(h.Remove)...)
	}

	// Calendar
	if h := cfg.CalendarHandler; h != nil {
		api.GET("/calendar/upcoming", public(h.Upcoming)...)
		api.GET("/calendar/events", admin(h.ListEvents)...)
		api.POST("/calendar/events", admin(h.CreateEvent)...)
		api.PUT("/calendar/events/:id", admin(h.UpdateEvent)...)
		api.DELETE("/calendar/events/:id", admin(h.DeleteEvent)...)
	}

	return r
}
