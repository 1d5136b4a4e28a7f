package main

import (
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/classpilot/classpilot/providers/base"
)

// config holds all environment backed settings for the daemon.
type config struct {
	Addr       string        `env:"CLASSPILOT_ADDR" envDefault:":8000"`
	DBPath     string        `env:"CLASSPILOT_DB" envDefault:"data/classpilot.db"`
	Provider   string        `env:"CLASSPILOT_PROVIDER" envDefault:"deepseek"`
	Model      string        `env:"CLASSPILOT_MODEL"`
	Debug      bool          `env:"CLASSPILOT_DEBUG" envDefault:"false"`
	SessionTTL time.Duration `env:"CLASSPILOT_SESSION_TTL" envDefault:"2h"`
	PendingTTL time.Duration `env:"CLASSPILOT_PENDING_TTL" envDefault:"10m"`
	MaxSteps   int           `env:"CLASSPILOT_MAX_STEPS" envDefault:"20"`

	CanvasBaseURL    string `env:"CANVAS_BASE_URL,notEmpty"`
	CanvasToken      string `env:"CANVAS_API_TOKEN,notEmpty"`
	CanvasAdminToken string `env:"CANVAS_ADMIN_TOKEN"`
	CanvasAccountID  int64  `env:"CANVAS_ACCOUNT_ID" envDefault:"1"`
}

func loadConfig() (*config, error) {
	_ = base.LoadEnv()
	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
