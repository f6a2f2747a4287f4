// Package projectconfig provides the ProjectConfig struct and loader for
// .slmgen.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file Load searches for.
const FileName = ".slmgen.yaml"

// JWTSecretEnv overrides auth.jwt_secret when set.
const JWTSecretEnv = "SLMGEN_JWT_SECRET"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultOutputDir  = "output/"
	DefaultUploadsDir = "uploads/"

	DefaultCacheDir = ".slmgen-cache"

	DefaultServerPort     = 8000
	DefaultMaxUploadBytes = 50 * 1024 * 1024

	DefaultMaxSessions       = 25
	DefaultSessionTTLMinutes = 30

	DefaultRateLimitPerMinute       = 60
	DefaultUploadRateLimitPerMinute = 10

	DefaultJWTIssuer = "slmgen"

	DefaultJobsDBPath = "slmgen-jobs.db"

	DefaultLogLevel = "info"

	DefaultMultilingualBoost = 20
	DefaultEdgeBoost         = 15
)

// DefaultAllowedOrigins are the CORS origins accepted when none are configured.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// PathsConfig holds directory paths for generated notebooks and uploads.
type PathsConfig struct {
	Output  string `yaml:"output,omitempty"`
	Uploads string `yaml:"uploads,omitempty"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes,omitempty"`
}

// SessionsConfig bounds the in-memory session store.
type SessionsConfig struct {
	Max        int `yaml:"max,omitempty"`
	TTLMinutes int `yaml:"ttl_minutes,omitempty"`
}

// TTL returns the session lifetime as a duration.
func (s SessionsConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	PerMinute       int `yaml:"per_minute,omitempty"`
	UploadPerMinute int `yaml:"upload_per_minute,omitempty"`
}

// AuthConfig holds JWT verification settings.
type AuthConfig struct {
	Disabled  *bool  `yaml:"disabled,omitempty"`
	JWTSecret string `yaml:"jwt_secret,omitempty"`
	Issuer    string `yaml:"issuer,omitempty"`
}

// JobsConfig locates the job history database.
type JobsConfig struct {
	DBPath string `yaml:"db_path,omitempty"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// AzureBlobConfig names the container notebooks are published to.
type AzureBlobConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
}

// Enabled reports whether both the account and container are set.
func (a AzureBlobConfig) Enabled() bool {
	return a.AccountURL != "" && a.Container != ""
}

// PublishConfig holds notebook publishing targets.
type PublishConfig struct {
	AzureBlob AzureBlobConfig `yaml:"azure_blob,omitempty"`
}

// RecommendConfig overrides recommendation boosts.
type RecommendConfig struct {
	MultilingualBoost int `yaml:"multilingual_boost,omitempty"`
	EdgeBoost         int `yaml:"edge_boost,omitempty"`
	// PinMultilingual keeps Qwen among the shown models for multilingual
	// datasets even when it ranks below the alternatives.
	PinMultilingual bool `yaml:"pin_multilingual,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .slmgen.yaml.
type ProjectConfig struct {
	Paths     PathsConfig     `yaml:"paths,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Sessions  SessionsConfig  `yaml:"sessions,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
	Auth      AuthConfig      `yaml:"auth,omitempty"`
	Jobs      JobsConfig      `yaml:"jobs,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Publish   PublishConfig   `yaml:"publish,omitempty"`
	Recommend RecommendConfig `yaml:"recommend,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Output:  DefaultOutputDir,
			Uploads: DefaultUploadsDir,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Server: ServerConfig{
			Port:           DefaultServerPort,
			AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Sessions: SessionsConfig{
			Max:        DefaultMaxSessions,
			TTLMinutes: DefaultSessionTTLMinutes,
		},
		RateLimit: RateLimitConfig{
			PerMinute:       DefaultRateLimitPerMinute,
			UploadPerMinute: DefaultUploadRateLimitPerMinute,
		},
		Auth: AuthConfig{
			Disabled: boolPtr(false),
			Issuer:   DefaultJWTIssuer,
		},
		Jobs: JobsConfig{
			DBPath: DefaultJobsDBPath,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
		Recommend: RecommendConfig{
			MultilingualBoost: DefaultMultilingualBoost,
			EdgeBoost:         DefaultEdgeBoost,
		},
	}
}

// Load finds .slmgen.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. A missing file
// yields defaults with a nil error. Real I/O errors are returned.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	default:
		var fileCfg ProjectConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
		mergeConfig(cfg, &fileCfg)
	}

	if secret := os.Getenv(JWTSecretEnv); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// LoadFile reads an explicit config path instead of searching for one.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg := New()
	mergeConfig(cfg, &fileCfg)
	if secret := os.Getenv(JWTSecretEnv); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// findConfigFile walks up from dir looking for .slmgen.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	// Absolute so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Output != "" {
		dst.Paths.Output = src.Paths.Output
	}
	if src.Paths.Uploads != "" {
		dst.Paths.Uploads = src.Paths.Uploads
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}
	if src.Server.MaxUploadBytes != 0 {
		dst.Server.MaxUploadBytes = src.Server.MaxUploadBytes
	}

	// Sessions
	if src.Sessions.Max != 0 {
		dst.Sessions.Max = src.Sessions.Max
	}
	if src.Sessions.TTLMinutes != 0 {
		dst.Sessions.TTLMinutes = src.Sessions.TTLMinutes
	}

	// Rate limits
	if src.RateLimit.PerMinute != 0 {
		dst.RateLimit.PerMinute = src.RateLimit.PerMinute
	}
	if src.RateLimit.UploadPerMinute != 0 {
		dst.RateLimit.UploadPerMinute = src.RateLimit.UploadPerMinute
	}

	// Auth
	if src.Auth.Disabled != nil {
		dst.Auth.Disabled = src.Auth.Disabled
	}
	if src.Auth.JWTSecret != "" {
		dst.Auth.JWTSecret = src.Auth.JWTSecret
	}
	if src.Auth.Issuer != "" {
		dst.Auth.Issuer = src.Auth.Issuer
	}

	// Jobs
	if src.Jobs.DBPath != "" {
		dst.Jobs.DBPath = src.Jobs.DBPath
	}

	// Logging
	if src.Logging.File != "" {
		dst.Logging.File = src.Logging.File
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}

	// Publish
	if src.Publish.AzureBlob.AccountURL != "" {
		dst.Publish.AzureBlob.AccountURL = src.Publish.AzureBlob.AccountURL
	}
	if src.Publish.AzureBlob.Container != "" {
		dst.Publish.AzureBlob.Container = src.Publish.AzureBlob.Container
	}

	// Recommend
	if src.Recommend.MultilingualBoost != 0 {
		dst.Recommend.MultilingualBoost = src.Recommend.MultilingualBoost
	}
	if src.Recommend.EdgeBoost != 0 {
		dst.Recommend.EdgeBoost = src.Recommend.EdgeBoost
	}
}

func boolPtr(b bool) *bool {
	return &b
}
