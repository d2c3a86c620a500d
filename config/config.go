package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	FunnelBaseURL string
	DatabaseURL   string
	LogLevel      string

	// Browser
	Headless      bool
	ChromePath    string
	ScreenshotDir string

	// Funnel tuning. The premium window separates plausible premiums from
	// coverage limits during fallback price extraction; both bounds were
	// calibrated against the reference funnel and may need adjustment if
	// the target site changes.
	PremiumMin     float64
	PremiumMax     float64
	JitterMinMs    int
	JitterMaxMs    int
	StageTimeoutMs int
	ReadyPollMs    int

	// Capability flags
	MultiVehicle bool
	MultiDriver  bool

	// Resend Email
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	// Twilio SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Discord ops notifications
	DiscordToken           string
	DiscordRunLogChannelID string

	// GoHighLevel CRM
	GHLAPIKey       string
	GHLLocationID   string
	GHLPipelineID   string
	GHLStageNewLead string
	GHLCFQuoteCount string
	GHLCFBestPrice  string
	GHLCFState      string

	// API Server
	APIToken      string
	APIPort       string
	AllowedOrigin string
}

func MustLoad() *Config {
	_ = godotenv.Load() // .env is optional (deploy platforms inject env directly)

	cfg := &Config{
		FunnelBaseURL: os.Getenv("FUNNEL_BASE_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      os.Getenv("LOG_LEVEL"),

		ChromePath:    os.Getenv("CHROME_PATH"),
		ScreenshotDir: os.Getenv("SCREENSHOT_DIR"),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: os.Getenv("EMAIL_FROM_NAME"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		DiscordToken:           os.Getenv("DISCORD_TOKEN"),
		DiscordRunLogChannelID: os.Getenv("DISCORD_RUN_LOG_CHANNEL_ID"),

		GHLAPIKey:       os.Getenv("GHL_API_KEY"),
		GHLLocationID:   os.Getenv("GHL_LOCATION_ID"),
		GHLPipelineID:   os.Getenv("GHL_PIPELINE_ID"),
		GHLStageNewLead: os.Getenv("GHL_STAGE_NEW_LEAD"),
		GHLCFQuoteCount: os.Getenv("GHL_CF_QUOTE_COUNT"),
		GHLCFBestPrice:  os.Getenv("GHL_CF_BEST_PRICE"),
		GHLCFState:      os.Getenv("GHL_CF_STATE"),

		APIToken:      os.Getenv("API_TOKEN"),
		APIPort:       os.Getenv("API_PORT"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.APIPort == "" {
		cfg.APIPort = "8080"
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}

	cfg.Headless = getEnvBool("HEADLESS", true)
	cfg.MultiVehicle = getEnvBool("MULTI_VEHICLE", true)
	cfg.MultiDriver = getEnvBool("MULTI_DRIVER", true)

	cfg.PremiumMin = getEnvFloat("PREMIUM_MIN", 50)
	cfg.PremiumMax = getEnvFloat("PREMIUM_MAX", 2000)
	cfg.JitterMinMs = getEnvInt("JITTER_MIN_MS", 400)
	cfg.JitterMaxMs = getEnvInt("JITTER_MAX_MS", 1400)
	cfg.StageTimeoutMs = getEnvInt("STAGE_TIMEOUT_MS", 15000)
	cfg.ReadyPollMs = getEnvInt("READY_POLL_MS", 250)

	// Validate required
	if cfg.FunnelBaseURL == "" {
		log.Fatal("FUNNEL_BASE_URL is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
