package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/db"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/observability"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/gcp"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	Version string `env:"APP_VERSION" envDefault:"dev"`

	LogRedaction bool   `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
	LogHashSalt  string `env:"LOG_HASH_SALT"`

	PostgresDSN      string `env:"POSTGRES_DSN"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"mickelsen_farms"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	JWTSecretKey       string        `env:"JWT_SECRET_KEY,required"`
	SessionTokenTTL    time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"12h"`
	GoogleOIDCClientID string        `env:"GOOGLE_OIDC_CLIENT_ID"`
	AdminEmails        []string      `env:"ADMIN_EMAILS" envSeparator:","`
	AdminPolicyFile    string        `env:"ADMIN_POLICY_FILE"`

	ObjectStorageMode          string `env:"OBJECT_STORAGE_MODE"`
	StorageEmulatorHost        string `env:"STORAGE_EMULATOR_HOST"`
	ObjectStoragePublicBaseURL string `env:"OBJECT_STORAGE_PUBLIC_BASE_URL"`
	ImageBucket                string `env:"IMAGE_GCS_BUCKET_NAME,required"`
	DocumentBucket             string `env:"DOCUMENT_GCS_BUCKET_NAME"`
	ImageCDNDomain             string `env:"IMAGE_CDN_DOMAIN"`
	DocumentCDNDomain          string `env:"DOCUMENT_CDN_DOMAIN"`
	MaxUploadMB                int64  `env:"MAX_UPLOAD_MB" envDefault:"20"`

	GoogleCredentialsJSON string `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
	GoogleCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	GoogleCalendarID       string `env:"GOOGLE_CALENDAR_ID"`
	GoogleCalendarTimezone string `env:"GOOGLE_CALENDAR_TIMEZONE" envDefault:"America/Denver"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"15m"`
	ReconcileGrace    time.Duration `env:"RECONCILE_GRACE" envDefault:"30m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	OtelEnabled     bool              `env:"OTEL_ENABLED"`
	OtelExporter    string            `env:"OTEL_TRACES_EXPORTER"`
	OtelServiceName string            `env:"OTEL_SERVICE_NAME" envDefault:"mickelsen-farms-cms"`
	OtelEndpoint    string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" envSeparator:"," envKeyValSeparator:"="`
	OtelInsecure    bool              `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64           `env:"OTEL_SAMPLER_RATIO" envDefault:"0.1"`
}

// LoadConfig reads .env files when present and then parses the environment.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}

func (c Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

func (c Config) Postgres() db.PostgresConfig {
	return db.PostgresConfig{
		DSN:      c.PostgresDSN,
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		Name:     c.PostgresName,
		SSLMode:  c.PostgresSSLMode,
	}
}

func (c Config) ObjectStorage() (gcp.ObjectStorageConfig, error) {
	cfg, err := gcp.ResolveObjectStorageConfig(c.ObjectStorageMode, c.StorageEmulatorHost, c.ObjectStoragePublicBaseURL)
	if err != nil {
		return cfg, err
	}
	cfg.Credentials = c.GoogleCredentials()
	return cfg, nil
}

func (c Config) GoogleCredentials() gcp.Credentials {
	return gcp.Credentials{JSON: c.GoogleCredentialsJSON, File: c.GoogleCredentialsFile}
}

func (c Config) Buckets() gcp.BucketsConfig {
	return gcp.BucketsConfig{
		ImageBucket:       c.ImageBucket,
		DocumentBucket:    c.DocumentBucket,
		ImageCDNDomain:    c.ImageCDNDomain,
		DocumentCDNDomain: c.DocumentCDNDomain,
	}
}

// AdminPolicy merges ADMIN_EMAILS with the YAML policy file.
func (c Config) AdminPolicy() (*services.AdminPolicy, error) {
	emails := append([]string(nil), c.AdminEmails...)
	if path := strings.TrimSpace(c.AdminPolicyFile); path != "" {
		fromFile, err := services.LoadAdminPolicyFile(path)
		if err != nil {
			return nil, err
		}
		emails = append(emails, fromFile...)
	}
	return services.NewAdminPolicy(emails...), nil
}

func (c Config) Otel() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.OtelEnabled,
		Exporter:    c.OtelExporter,
		ServiceName: c.OtelServiceName,
		Environment: c.LogMode,
		Version:     c.Version,
		Endpoint:    c.OtelEndpoint,
		Headers:     c.OtelHeaders,
		Insecure:    c.OtelInsecure,
		SampleRatio: c.OtelSampleRatio,
	}
}
