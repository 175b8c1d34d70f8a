package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"FAASentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Universe struct {
		Tickers        []string `yaml:"tickers" validate:"dive,required"`
		Size           int      `yaml:"size" validate:"gte=0"` // 0 disables the exact-size rule
		IncludeCash    bool     `yaml:"include_cash"`
		CashTicker     string   `yaml:"cash_ticker" validate:"required"`
		LookbackMonths int      `yaml:"lookback_months" validate:"gte=1,lte=24"`
	} `yaml:"universe"`
	Scoring struct {
		Mode        string        `yaml:"mode" validate:"oneof=rank raw"`
		Aggregation string        `yaml:"aggregation" validate:"oneof=mean sum"`
		TopN        int           `yaml:"top_n" validate:"gte=1"`
		Weights     model.Weights `yaml:"weights"`
	} `yaml:"scoring"`
	Allocation struct {
		BaseCurrency string `yaml:"base_currency" validate:"len=3"`
		FXURL        string `yaml:"fx_url" validate:"omitempty,url"`
	} `yaml:"allocation"`
	DataSource struct {
		Proxy          string  `yaml:"proxy"`
		RPS            float64 `yaml:"rps" validate:"gt=0"`
		Burst          int     `yaml:"burst" validate:"gte=1"`
		TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=1"`
	} `yaml:"data_source"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron" validate:"required"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Preferences struct {
		StateFile string `yaml:"state_file" validate:"required"`
	} `yaml:"preferences"`
	HTTP struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"http"`
}

// overrides are read from the environment (FAA_ prefix, or the bare tag name).
type overrides struct {
	Tickers        []string `envconfig:"TICKERS"`
	IncludeCash    *bool    `envconfig:"INCLUDE_CASH"`
	LookbackMonths int      `envconfig:"LOOKBACK_MONTHS"`
	ScoringMode    string   `envconfig:"SCORING_MODE"`
	Aggregation    string   `envconfig:"AGGREGATION"`
	TopN           int      `envconfig:"TOP_N"`
	BaseCurrency   string   `envconfig:"BASE_CURRENCY"`
	BotToken       string   `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID         string   `envconfig:"TELEGRAM_CHAT_ID"`
	Proxy          string   `envconfig:"HTTPS_PROXY"`
	EvaluateCron   string   `envconfig:"CRON_EVALUATE"`
	SQLitePath     string   `envconfig:"SQLITE_PATH"`
	StateFile      string   `envconfig:"STATE_FILE"`
	HTTPAddr       string   `envconfig:"HTTP_ADDR"`
}

// Path returns the config file location, honoring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	var o overrides
	if err := envconfig.Process("FAA", &o); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.apply(o)
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) apply(o overrides) {
	if len(o.Tickers) > 0 {
		c.Universe.Tickers = o.Tickers
	}
	if o.IncludeCash != nil {
		c.Universe.IncludeCash = *o.IncludeCash
	}
	if o.LookbackMonths != 0 {
		c.Universe.LookbackMonths = o.LookbackMonths
	}
	if o.ScoringMode != "" {
		c.Scoring.Mode = o.ScoringMode
	}
	if o.Aggregation != "" {
		c.Scoring.Aggregation = o.Aggregation
	}
	if o.TopN != 0 {
		c.Scoring.TopN = o.TopN
	}
	if o.BaseCurrency != "" {
		c.Allocation.BaseCurrency = o.BaseCurrency
	}
	if o.BotToken != "" {
		c.Telegram.BotToken = o.BotToken
	}
	if o.ChatID != "" {
		c.Telegram.ChatID = o.ChatID
	}
	if o.Proxy != "" {
		c.DataSource.Proxy = o.Proxy
	}
	if o.EvaluateCron != "" {
		c.Schedule.EvaluateCron = o.EvaluateCron
	}
	if o.SQLitePath != "" {
		c.Database.SQLitePath = o.SQLitePath
	}
	if o.StateFile != "" {
		c.Preferences.StateFile = o.StateFile
	}
	if o.HTTPAddr != "" {
		c.HTTP.Addr = o.HTTPAddr
	}
}

func (c *Config) applyDefaults() {
	for i, t := range c.Universe.Tickers {
		c.Universe.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if c.Universe.Size == 0 && len(c.Universe.Tickers) == 0 {
		c.Universe.Size = 7
	}
	if c.Universe.CashTicker == "" {
		c.Universe.CashTicker = "USD"
	}
	if c.Universe.LookbackMonths == 0 {
		c.Universe.LookbackMonths = 4
	}
	if c.Scoring.Mode == "" {
		c.Scoring.Mode = string(model.ScoringRank)
	}
	if c.Scoring.Aggregation == "" {
		c.Scoring.Aggregation = string(model.AggregateMean)
	}
	if c.Scoring.TopN == 0 {
		c.Scoring.TopN = 3
	}
	if c.Scoring.Weights == (model.Weights{}) {
		c.Scoring.Weights = model.DefaultWeights
	}
	if c.Allocation.BaseCurrency == "" {
		c.Allocation.BaseCurrency = "USD"
	}
	c.Allocation.BaseCurrency = strings.ToUpper(c.Allocation.BaseCurrency)
	if c.Allocation.FXURL == "" {
		c.Allocation.FXURL = "https://api.exchangerate-api.com/v4/latest/" + c.Allocation.BaseCurrency
	}
	if c.DataSource.RPS == 0 {
		c.DataSource.RPS = 2
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 4
	}
	if c.DataSource.TimeoutSeconds == 0 {
		c.DataSource.TimeoutSeconds = 30
	}
	if c.Schedule.EvaluateCron == "" {
		// 22:00 on the 1st of every month
		c.Schedule.EvaluateCron = "0 0 22 1 * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/faa_sentinel.db"
	}
	if c.Preferences.StateFile == "" {
		c.Preferences.StateFile = "data/preferences.json"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules of the evaluation settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Universe.Tickers) > 0 {
		if err := ValidateUniverse(c.Universe.Tickers, c.Universe.Size, c.Universe.CashTicker, c.Universe.IncludeCash); err != nil {
			return err
		}
		if c.Scoring.TopN > c.UniverseLen() {
			return fmt.Errorf("scoring.top_n (%d) cannot exceed universe size (%d)", c.Scoring.TopN, c.UniverseLen())
		}
	}
	return nil
}

// ValidateBot additionally requires the Telegram settings the bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if len(c.Universe.Tickers) == 0 {
		return fmt.Errorf("universe.tickers is required")
	}
	return nil
}

// ValidateUniverse rejects blank or duplicate tickers, a wrong universe size,
// and a real ticker that collides with the synthetic cash candidate.
func ValidateUniverse(tickers []string, size int, cashTicker string, includeCash bool) error {
	if size > 0 && len(tickers) != size {
		return fmt.Errorf("exactly %d tickers required, got %d", size, len(tickers))
	}
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			return fmt.Errorf("all %d tickers must be filled", len(tickers))
		}
		if seen[t] {
			return fmt.Errorf("duplicate ticker %s", t)
		}
		if includeCash && strings.EqualFold(t, cashTicker) {
			return fmt.Errorf("ticker %s collides with the cash candidate", t)
		}
		seen[t] = true
	}
	return nil
}

// UniverseLen is the number of candidates per cycle, including the cash candidate.
func (c *Config) UniverseLen() int {
	n := len(c.Universe.Tickers)
	if c.Universe.IncludeCash {
		n++
	}
	return n
}

// Engine returns the immutable engine configuration for one cycle.
func (c *Config) Engine() model.EngineConfig {
	return model.EngineConfig{
		Mode:        model.ScoringMode(c.Scoring.Mode),
		Aggregation: model.AggregationPolicy(c.Scoring.Aggregation),
		Weights:     c.Scoring.Weights,
		TopN:        c.Scoring.TopN,
		IncludeCash: c.Universe.IncludeCash,
		CashTicker:  c.Universe.CashTicker,
	}
}
