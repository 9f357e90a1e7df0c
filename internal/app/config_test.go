package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/gcp"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("IMAGE_GCS_BUCKET_NAME", "farm-images")
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("Addr: want=:8080 got=%s", cfg.Addr())
	}
	if cfg.SessionTokenTTL != 12*time.Hour || cfg.ReconcileInterval != 15*time.Minute {
		t.Fatalf("durations: ttl=%v interval=%v", cfg.SessionTokenTTL, cfg.ReconcileInterval)
	}
	if cfg.MaxUploadBytes() != 20<<20 {
		t.Fatalf("MaxUploadBytes: got=%d", cfg.MaxUploadBytes())
	}
	storage, err := cfg.ObjectStorage()
	if err != nil || storage.Mode != gcp.StorageModeGCS {
		t.Fatalf("ObjectStorage: mode=%s err=%v", storage.Mode, err)
	}
	if cfg.Postgres().ConnString() == "" {
		t.Fatalf("postgres conn string should be built from parts")
	}
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("IMAGE_GCS_BUCKET_NAME", "")
	os.Unsetenv("JWT_SECRET_KEY")
	os.Unsetenv("IMAGE_GCS_BUCKET_NAME")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Fatalf("expected error for missing required vars")
	}
}

func TestLoadConfigReadsDotEnvAndPolicyFile(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "admins.yaml")
	if err := os.WriteFile(policy, []byte("admins:\n  - helper@example.com\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dotenv := filepath.Join(dir, ".env")
	body := "JWT_SECRET_KEY=from-file\nIMAGE_GCS_BUCKET_NAME=farm-images\nADMIN_EMAILS=Owner@MickelsenFarms.com\nADMIN_POLICY_FILE=" + policy + "\nCORS_ALLOWED_ORIGINS=https://a.example,https://b.example\n"
	if err := os.WriteFile(dotenv, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for _, k := range []string{"JWT_SECRET_KEY", "IMAGE_GCS_BUCKET_NAME", "ADMIN_EMAILS", "ADMIN_POLICY_FILE", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadConfig(dotenv)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	t.Cleanup(func() {
		for _, k := range []string{"JWT_SECRET_KEY", "IMAGE_GCS_BUCKET_NAME", "ADMIN_EMAILS", "ADMIN_POLICY_FILE", "CORS_ALLOWED_ORIGINS"} {
			os.Unsetenv(k)
		}
	})
	if cfg.JWTSecretKey != "from-file" || len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("dotenv not applied: %+v", cfg)
	}
	p, err := cfg.AdminPolicy()
	if err != nil {
		t.Fatalf("AdminPolicy: %v", err)
	}
	if !p.IsAdmin("owner@mickelsenfarms.com") || !p.IsAdmin("helper@example.com") || p.Size() != 2 {
		t.Fatalf("AdminPolicy: unexpected membership (size=%d)", p.Size())
	}
}

func TestLoadConfigRejectsBadEmulatorSetup(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("IMAGE_GCS_BUCKET_NAME", "farm-images")
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := cfg.ObjectStorage(); err == nil {
		t.Fatalf("expected emulator mode without host to fail")
	}
}
