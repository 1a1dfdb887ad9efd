package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the bootstrap entrypoint.
//
// UserID and Runtime are kept as raw strings on purpose: "unset",
// "non-numeric" and "below minimum" must stay distinguishable so each
// can fail with its own diagnostic.
type Config struct {
	// Identity of the service account to provision (documented as USER_ID)
	UserID string `env:"USER_ID" validate:"required"`

	// Deployment mode label (documented as RUNTIME)
	Runtime string `env:"RUNTIME" validate:"required"`

	// Service account
	Account string `env:"APP_ACCOUNT" envDefault:"metaserve" validate:"required"`
	Shell   string `env:"APP_SHELL" envDefault:"/usr/sbin/nologin" validate:"required"`

	// Managed directory trees (bind-mounted by the orchestrator)
	DataDir   string `env:"APP_DATA_DIR" envDefault:"/var/lib/metaserve" validate:"required"`
	LogDir    string `env:"APP_LOG_DIR" envDefault:"/var/log/metaserve" validate:"required"`
	ConfigDir string `env:"APP_CONFIG_DIR" envDefault:"/etc/metaserve" validate:"required"`

	// Login banner
	BannerFile  string `env:"BANNER_FILE" envDefault:"/etc/motd" validate:"required"`
	MessageFile string `env:"MESSAGE_FILE" envDefault:"/usr/share/metaserve/message"`
	ProfileFile string `env:"PROFILE_FILE" envDefault:"/etc/profile" validate:"required"`

	// Entrypoint's own log
	LogFile string `env:"LOG_FILE" envDefault:"/var/log/metaserve/stackboot.log"`
}

// Load loads the configuration from environment variables and an
// optional .env file placed next to the binary.
func Load() (*Config, error) {
	// godotenv never overwrites variables already present in the
	// environment, so a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every required field is present. Semantic
// validation of UserID and Runtime (numeric range, recognized mode)
// happens in the bootstrap package, which owns the error taxonomy.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("%s is required", fieldEnvName(errs[0].StructField()))
		}
		return err
	}
	return nil
}

// fieldEnvName maps struct field names back to the env var the
// operator actually sets, for readable diagnostics.
func fieldEnvName(field string) string {
	switch field {
	case "UserID":
		return "USER_ID"
	case "Runtime":
		return "RUNTIME"
	case "Account":
		return "APP_ACCOUNT"
	case "Shell":
		return "APP_SHELL"
	case "DataDir":
		return "APP_DATA_DIR"
	case "LogDir":
		return "APP_LOG_DIR"
	case "ConfigDir":
		return "APP_CONFIG_DIR"
	case "BannerFile":
		return "BANNER_FILE"
	case "ProfileFile":
		return "PROFILE_FILE"
	default:
		return field
	}
}
