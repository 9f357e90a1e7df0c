package gcp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS      StorageMode = "gcs"
	StorageModeEmulator StorageMode = "gcs_emulator"
)

var (
	ErrInvalidStorageMode  = errors.New("invalid OBJECT_STORAGE_MODE")
	ErrMissingEmulatorHost = errors.New("gcs_emulator mode requires STORAGE_EMULATOR_HOST")
	ErrInvalidStorageURL   = errors.New("storage URL must be absolute, like http://fake-gcs:4443")
)

// ObjectStorageConfig is the resolved storage backend for the asset buckets.
type ObjectStorageConfig struct {
	Mode          StorageMode
	EmulatorHost  string
	PublicBaseURL string
	Credentials   Credentials

	// Inferred is set when the emulator was picked only because
	// STORAGE_EMULATOR_HOST was present.
	Inferred bool
}

func (cfg ObjectStorageConfig) IsEmulator() bool { return cfg.Mode == StorageModeEmulator }

// ResolveObjectStorageConfig normalizes raw settings. An empty mode selects
// the emulator when a host is given, else real GCS.
func ResolveObjectStorageConfig(rawMode, emulatorHost, publicBaseURL string) (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		EmulatorHost:  strings.TrimRight(strings.TrimSpace(emulatorHost), "/"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
	switch mode := StorageMode(strings.ToLower(strings.TrimSpace(rawMode))); mode {
	case "":
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeEmulator
			cfg.Inferred = true
		}
	case StorageModeGCS, StorageModeEmulator:
		cfg.Mode = mode
	default:
		return cfg, fmt.Errorf("%w %q (allowed: %q, %q)", ErrInvalidStorageMode, rawMode, StorageModeGCS, StorageModeEmulator)
	}
	return cfg, cfg.Validate()
}

func (cfg ObjectStorageConfig) Validate() error {
	if cfg.Mode != StorageModeGCS && cfg.Mode != StorageModeEmulator {
		return fmt.Errorf("%w %q", ErrInvalidStorageMode, cfg.Mode)
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return fmt.Errorf("OBJECT_STORAGE_PUBLIC_BASE_URL=%q: %w", cfg.PublicBaseURL, ErrInvalidStorageURL)
	}
	if !cfg.IsEmulator() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return ErrMissingEmulatorHost
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return fmt.Errorf("STORAGE_EMULATOR_HOST=%q: %w", cfg.EmulatorHost, ErrInvalidStorageURL)
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
