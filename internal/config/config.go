package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Server
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Redis
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// JWT (tokens are issued by the identity service)
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Reporting
	ReportTimezone     string `env:"REPORT_TIMEZONE" envDefault:"Asia/Seoul"`
	ReportFocusAverage int    `env:"REPORT_FOCUS_AVERAGE" envDefault:"75"`

	// Session summarizer
	SummarizerURL     string        `env:"SUMMARIZER_URL"`
	SummarizerAPIKey  string        `env:"SUMMARIZER_API_KEY"`
	SummarizerTimeout time.Duration `env:"SUMMARIZER_TIMEOUT" envDefault:"30s"`

	// Gemini AI, used for session summaries when SUMMARIZER_URL is unset
	GeminiAPIKey         string `env:"GEMINI_API_KEY"`
	GeminiModel          string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiConcurrentReqs int    `env:"GEMINI_CONCURRENT_REQUESTS" envDefault:"5"`

	// Weekly narrative summarizer
	WeeklySummarizerURL     string        `env:"WEEKLY_SUMMARIZER_URL" envDefault:"http://127.0.0.1:8001"`
	WeeklySummarizerAPIKey  string        `env:"WEEKLY_SUMMARIZER_API_KEY"`
	WeeklySummarizerTimeout time.Duration `env:"WEEKLY_SUMMARIZER_TIMEOUT" envDefault:"30s"`

	// Vision analyzer
	VisionEnabled       bool          `env:"VISION_ENABLED" envDefault:"false"`
	VisionBaseURL       string        `env:"VISION_BASE_URL"`
	VisionTimeout       time.Duration `env:"VISION_TIMEOUT" envDefault:"10s"`
	FrameUploadMaxBytes int64         `env:"FRAME_UPLOAD_MAX_BYTES" envDefault:"5242880"`

	// Background retry of board entries that failed inline (off: one attempt per question)
	BoardEntryRetryEnabled bool `env:"BOARD_ENTRY_RETRY_ENABLED" envDefault:"false"`
	BoardEntryRetryWorkers int  `env:"BOARD_ENTRY_RETRY_WORKERS" envDefault:"2"`

	// Weekly scheduler
	SchedulerEnabled bool   `env:"WEEKLY_SCHEDULER_ENABLED" envDefault:"true"`
	SchedulerCron    string `env:"WEEKLY_SCHEDULER_CRON" envDefault:"0 10 * * MON"`
	SchedulerZone    string `env:"WEEKLY_SCHEDULER_ZONE" envDefault:"Asia/Seoul"`

	// Frontend
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ReportLocation is the zone used for weekly windows, weekday buckets and
// board entry titles.
func (c *Config) ReportLocation() *time.Location {
	return loadLocation(c.ReportTimezone)
}

func (c *Config) SchedulerLocation() *time.Location {
	return loadLocation(c.SchedulerZone)
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("zone", name).Msg("unknown time zone, falling back to UTC")
		return time.UTC
	}
	return loc
}
