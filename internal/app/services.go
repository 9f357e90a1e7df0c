package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/calendar"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/gcp"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Assets      services.AssetService
	Content     services.ContentService
	Instructors services.InstructorService
	Calendar    services.CalendarService
	Reconcile   services.ReconcileService
}

// Clients are the external systems the services talk to.
type Clients struct {
	Bucket   gcp.BucketService
	Calendar calendar.Provider
	Google   services.GoogleVerifier
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	storageCfg, err := cfg.ObjectStorage()
	if err != nil {
		return Clients{}, fmt.Errorf("object storage config: %w", err)
	}
	bucket, err := gcp.NewBucketService(log, storageCfg, cfg.Buckets())
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket service: %w", err)
	}

	var google services.GoogleVerifier
	if cfg.GoogleOIDCClientID != "" {
		google, err = services.NewGoogleVerifier(nil, cfg.GoogleOIDCClientID)
		if err != nil {
			return Clients{}, fmt.Errorf("init google verifier: %w", err)
		}
	} else {
		log.Warn("GOOGLE_OIDC_CLIENT_ID not set, Google sign-in disabled")
	}

	loc, err := time.LoadLocation(cfg.GoogleCalendarTimezone)
	if err != nil {
		return Clients{}, fmt.Errorf("GOOGLE_CALENDAR_TIMEZONE: %w", err)
	}
	var provider calendar.Provider
	provider, err = calendar.NewGoogleProvider(ctx, log, calendar.Config{
		CalendarID: cfg.GoogleCalendarID,
		Location:   loc,
	}, cfg.GoogleCredentials().ClientOptions()...)
	switch {
	case errors.Is(err, calendar.ErrNotConfigured):
		log.Warn("GOOGLE_CALENDAR_ID not set, calendar endpoints will report upstream failure")
		provider = nil
	case err != nil:
		return Clients{}, fmt.Errorf("init calendar provider: %w", err)
	}

	return Clients{Bucket: bucket, Calendar: provider, Google: google}, nil
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	policy, err := cfg.AdminPolicy()
	if err != nil {
		return Services{}, err
	}
	if policy.Size() == 0 {
		log.Warn("Admin allow-list is empty; every mutation will be forbidden")
	}
	return Services{
		Auth:        services.NewAuthService(log, policy, clients.Google, cfg.JWTSecretKey, cfg.SessionTokenTTL),
		Assets:      services.NewAssetService(log, clients.Bucket, reposet.Images, reposet.Pdfs, reposet.Intents),
		Content:     services.NewContentService(log, reposet.Content),
		Instructors: services.NewInstructorService(log, reposet.Instructors),
		Calendar:    services.NewCalendarService(log, clients.Calendar),
		Reconcile:   services.NewReconcileService(log, clients.Bucket, reposet.Images, reposet.Pdfs, reposet.Intents),
	}, nil
}
