package app

import (
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http"
	httpH "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/handlers"
	httpMW "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/http/middleware"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	Assets      *httpH.AssetHandler
	Content     *httpH.ContentHandler
	Instructors *httpH.InstructorHandler
	Calendar    *httpH.CalendarHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, services.Auth)}
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		Auth:        httpH.NewAuthHandler(services.Auth),
		Assets:      httpH.NewAssetHandler(services.Assets, cfg.MaxUploadBytes()),
		Content:     httpH.NewContentHandler(services.Content),
		Instructors: httpH.NewInstructorHandler(services.Instructors),
		Calendar:    httpH.NewCalendarHandler(services.Calendar),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *http.Server {
	log.Info("Wiring router...")
	routerCfg := http.RouterConfig{
		Log:               log,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthMiddleware:    middleware.Auth,
		AuthHandler:       handlers.Auth,
		AssetHandler:      handlers.Assets,
		ContentHandler:    handlers.Content,
		InstructorHandler: handlers.Instructors,
		CalendarHandler:   handlers.Calendar,
		HealthHandler:     handlers.Health,
	}
	if cfg.OtelEnabled {
		routerCfg.ServiceName = cfg.OtelServiceName
	}
	return http.NewServer(cfg.Addr(), routerCfg)
}
