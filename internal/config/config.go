package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Gemini
	GeminiAPIKey  string
	GeminiModelID string
	LLMTimeout    time.Duration

	// Site details shown to visitors and interpolated into prompts
	SiteInfoPath   string
	SiteWebsite    string
	SitePhone      string
	SiteEmail      string
	SiteBookingURL string

	// Conversation behaviour
	IdentityStrategy string
	SessionClosing   bool
	SessionStore     string
	SessionTTL       time.Duration

	// New-conversation notification
	AdminEmail      string
	NotifyStore     string
	NotifyStorePath string
	NotifyWindow    time.Duration
	NotifyTimeout   time.Duration
	EnableTestMail  bool

	// AdminToken guards reset and test mail when set
	AdminToken string

	// Email delivery
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CORSAllowedOrigins []string
	ChatRateLimit      float64
	ChatRateBurst      int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		LLMTimeout:    getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),

		SiteInfoPath:   getEnv("SITE_INFO_PATH", ""),
		SiteWebsite:    getEnv("SITE_WEBSITE", ""),
		SitePhone:      getEnv("SITE_PHONE", ""),
		SiteEmail:      getEnv("SITE_EMAIL", ""),
		SiteBookingURL: getEnv("SITE_BOOKING_URL", ""),

		IdentityStrategy: strings.ToLower(strings.TrimSpace(getEnv("IDENTITY_STRATEGY", "ip_ua"))),
		SessionClosing:   getEnvAsBool("SESSION_CLOSING", false),
		SessionStore:     strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		NotifyStore:     strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_STORE", "memory"))),
		NotifyStorePath: getEnv("NOTIFY_STORE_PATH", "notified.json"),
		NotifyWindow:    getEnvAsDuration("NOTIFY_WINDOW", 24*time.Hour),
		NotifyTimeout:   getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		EnableTestMail:  getEnvAsBool("ENABLE_TESTMAIL", true),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Consultation Chat"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", getEnv("SENDGRID_FROM_EMAIL", "")),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ChatRateLimit:      getEnvAsFloat("CHAT_RATE_LIMIT", 2),
		ChatRateBurst:      getEnvAsInt("CHAT_RATE_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("24h") and plain seconds ("0", "90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
