package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPFromEmail      string
	SMTPFromName       string
	RedisURL           string
	AppBaseURL         string
	CORSAllowedOrigins []string
	UploadDir          string
}

var appConfig *Config

// Load loads the configuration from environment variables.
// .env.<GO_ENV> is tried first, then .env; variables already present in the
// process environment always win.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Deployed environments set variables directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM_NAME", "Atelier")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.AutomaticEnv()

	config := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		Port:               v.GetString("PORT"),
		GoEnv:              v.GetString("GO_ENV"),
		Auth0Domain:        v.GetString("AUTH0_DOMAIN"),
		Auth0Audience:      v.GetString("AUTH0_AUDIENCE"),
		AWSRegion:          v.GetString("AWS_REGION"),
		AWSS3Bucket:        v.GetString("AWS_S3_BUCKET"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		SMTPHost:           v.GetString("SMTP_HOST"),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUsername:       v.GetString("SMTP_USERNAME"),
		SMTPPassword:       v.GetString("SMTP_PASSWORD"),
		SMTPFromEmail:      v.GetString("SMTP_FROM_EMAIL"),
		SMTPFromName:       v.GetString("SMTP_FROM_NAME"),
		RedisURL:           v.GetString("REDIS_URL"),
		AppBaseURL:         strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		UploadDir:          v.GetString("UPLOAD_DIR"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SMTPHost != "" && c.SMTPFromEmail == "" {
		return fmt.Errorf("SMTP_FROM_EMAIL is required when SMTP_HOST is set")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// S3Enabled reports whether design images go to S3 rather than local disk.
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// GetConfig returns the configuration loaded by the last successful Load call
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the loaded configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
