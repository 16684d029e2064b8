package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/webpiratt/autoswap/storage"
)

// Job names used for gating and task routing.
const (
	JobGasOptimizer = "gas-optimizer"
	JobOrderManager = "order-manager"
	JobDCAManager   = "dca-manager"
)

// JobSchedule is the per-job recurrence declaration. Expr is the cron
// expression the Task Gate checks against (seconds field optional); Enqueue
// is the interval at which the worker scheduler enqueues the job, which may
// be more frequent than Expr since the gate narrows firing to a single tick.
type JobSchedule struct {
	Name    string `mapstructure:"name" json:"name" validate:"required"`
	Expr    string `mapstructure:"expr" json:"expr" validate:"required"`
	Enqueue string `mapstructure:"enqueue" json:"enqueue,omitempty"`
}

type Config struct {
	Server struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port int64  `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"server" json:"server,omitempty"`

	Files struct {
		Dir            string `mapstructure:"dir" json:"dir,omitempty" validate:"required"`
		PersonalTokens string `mapstructure:"personal_tokens" json:"personal_tokens,omitempty"`
	} `mapstructure:"files" json:"files,omitempty"`

	Swap struct {
		MaxGasFeesUSD string `mapstructure:"max_gas_fees_in_usd" json:"max_gas_fees_in_usd,omitempty" validate:"required"`
		SlippageBps   int64  `mapstructure:"slippage_bps" json:"slippage_bps,omitempty"`
	} `mapstructure:"swap" json:"swap,omitempty"`

	DCA struct {
		// ISO weekday (1=Monday .. 7=Sunday) for weekly orders.
		WeeklyDay int `mapstructure:"weekly_day" json:"weekly_day,omitempty" validate:"min=1,max=7"`
		// Day of month (1..28) for monthly orders.
		MonthlyDay int `mapstructure:"monthly_day" json:"monthly_day,omitempty" validate:"min=1,max=28"`
	} `mapstructure:"dca" json:"dca,omitempty"`

	Jobs []JobSchedule `mapstructure:"jobs" json:"jobs,omitempty" validate:"dive"`

	Market struct {
		BaseURL        string `mapstructure:"base_url" json:"base_url,omitempty" validate:"required"`
		TakerAddress   string `mapstructure:"taker_address" json:"taker_address,omitempty"`
		TimeoutSeconds int64  `mapstructure:"timeout_seconds" json:"timeout_seconds,omitempty"`
	} `mapstructure:"market" json:"market,omitempty"`

	Redis storage.RedisConfig `mapstructure:"redis" json:"redis,omitempty"`

	TokenCacheTTLMinutes int64 `mapstructure:"token_cache_ttl_minutes" json:"token_cache_ttl_minutes,omitempty"`

	Datadog struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port string `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"datadog" json:"datadog"`
}

// Schedule returns the declared schedule for a job name, if any.
func (c *Config) Schedule(name string) (JobSchedule, bool) {
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return JobSchedule{}, false
}

func GetConfigure() (*Config, error) {
	configName := os.Getenv("AUTOSWAP_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}

	return ReadConfig(configName)
}

func ReadConfig(configName string) (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Default keys must match the mapstructure tags or they never reach the
	// decoded struct.
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("files.dir", "files")
	viper.SetDefault("files.personal_tokens", "files/personal_tokens.json")
	viper.SetDefault("swap.max_gas_fees_in_usd", "1.5")
	viper.SetDefault("swap.slippage_bps", 50)
	viper.SetDefault("dca.weekly_day", 1)
	viper.SetDefault("dca.monthly_day", 1)
	viper.SetDefault("market.timeout_seconds", 30)
	viper.SetDefault("token_cache_ttl_minutes", 30)
	viper.SetDefault("jobs", []map[string]string{
		{"name": JobGasOptimizer, "expr": "0 */15 01-05 * * *", "enqueue": "@every 1m"},
		{"name": JobOrderManager, "expr": "0 */5 * * * *", "enqueue": "@every 1m"},
		{"name": JobDCAManager, "expr": "0 0 * * * *", "enqueue": "@every 1h"},
	})

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fail to reading config file, %w", err)
	}
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
