package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	PoolAddress     string
	PositionManager string
	TokenID         uint64

	Interval            time.Duration
	BandBasisPoints     int
	TimeCapHours        float64
	FeeGasMultiple      float64
	EstimatedGasCostUSD float64

	TokenPrices map[string]float64
	PriceTTL    time.Duration

	Out           string
	PostgresDSN   string
	TelegramToken string
	TelegramChat  string

	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("position-manager", "0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	v.SetDefault("interval", 5*time.Minute)
	v.SetDefault("band-bps", 100)
	v.SetDefault("time-cap-hours", 24.0)
	v.SetDefault("fee-gas-multiple", 3.0)
	v.SetDefault("gas-cost-usd", 30.0)
	v.SetDefault("price-ttl", 30*time.Second)
	v.SetDefault("out", "./data/decisions.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:              v.GetString("rpc"),
		PoolAddress:         v.GetString("pool"),
		PositionManager:     v.GetString("position-manager"),
		TokenID:             v.GetUint64("token-id"),
		Interval:            v.GetDuration("interval"),
		BandBasisPoints:     v.GetInt("band-bps"),
		TimeCapHours:        v.GetFloat64("time-cap-hours"),
		FeeGasMultiple:      v.GetFloat64("fee-gas-multiple"),
		EstimatedGasCostUSD: v.GetFloat64("gas-cost-usd"),
		TokenPrices:         getPriceMap(v, "token-prices"),
		PriceTTL:            v.GetDuration("price-ttl"),
		Out:                 v.GetString("out"),
		PostgresDSN:         v.GetString("postgres-dsn"),
		TelegramToken:       v.GetString("telegram-token"),
		TelegramChat:        v.GetString("telegram-chat"),
		MaxRetries:          v.GetInt("max-retries"),
		RetryBackoff:        v.GetDuration("retry-backoff"),
		LogLevel:            v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BandBasisPoints <= 0 {
		return fmt.Errorf("band-bps must be positive, got %d", c.BandBasisPoints)
	}
	if c.TimeCapHours <= 0 {
		return fmt.Errorf("time-cap-hours must be positive, got %v", c.TimeCapHours)
	}
	if c.FeeGasMultiple <= 0 {
		return fmt.Errorf("fee-gas-multiple must be positive, got %v", c.FeeGasMultiple)
	}
	if c.EstimatedGasCostUSD <= 0 {
		return fmt.Errorf("gas-cost-usd must be positive, got %v", c.EstimatedGasCostUSD)
	}
	return nil
}

// getPriceMap accepts either a native map (config file) or a
// comma-separated "addr=price" string (flag or env).
func getPriceMap(v *viper.Viper, key string) map[string]float64 {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case map[string]interface{}:
		out := make(map[string]float64, len(typed))
		for addr := range typed {
			out[strings.ToLower(addr)] = cast(typed[addr])
		}
		return out
	case string:
		return parsePricePairs(typed)
	default:
		return nil
	}
}

func parsePricePairs(input string) map[string]float64 {
	out := make(map[string]float64)
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		var price float64
		if _, err := fmt.Sscanf(pair[idx+1:], "%g", &price); err != nil {
			continue
		}
		out[strings.ToLower(pair[:idx])] = price
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cast(val interface{}) float64 {
	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		var price float64
		fmt.Sscanf(n, "%g", &price)
		return price
	default:
		return 0
	}
}
