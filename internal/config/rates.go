package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RatesConfig carries the currency conversion applied when quoting the
// gateway amount. The rate is read once at payment initiation and stored
// on the record; later edits to the file never touch existing payments.
type RatesConfig struct {
	USDToKES decimal.Decimal
}

func DefaultRatesConfig() RatesConfig {
	return RatesConfig{
		USDToKES: decimal.NewFromInt(140),
	}
}

// RatesHolder exposes the current conversion rate with hot reload.
type RatesHolder struct {
	current atomic.Value // holds RatesConfig
}

// NewRatesHolder loads rates.yml (volume mount, /etc, or cwd) and watches
// it for changes. Missing file falls back to the default rate, which can
// still be overridden via STEGASHIELD_RATES_USD_TO_KES.
func NewRatesHolder(log *zap.Logger) (*RatesHolder, error) {
	log = log.Named("config.rates")
	v := viper.New()

	v.SetConfigName("rates")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/stegashield/config")
	v.AddConfigPath("/etc/stegashield")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STEGASHIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRatesConfig()
		v.SetDefault("rates.usd_to_kes", defaults.USDToKES.String())
	}

	cfg, err := readRates(v)
	if err != nil {
		return nil, err
	}

	holder := &RatesHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := readRates(v)
		if err != nil {
			log.Warn("rates reload failed, keeping previous snapshot", zap.Error(err))
			return
		}
		log.Info("rates reloaded", zap.String("usd_to_kes", updated.USDToKES.String()))
		holder.Set(updated)
	})

	return holder, nil
}

// Set replaces the current snapshot. The config watcher calls it on
// reload; it is safe to call concurrently with Current.
func (h *RatesHolder) Set(cfg RatesConfig) {
	h.current.Store(cfg)
}

// NewStaticRatesHolder returns a holder pinned to the given config,
// with no file watching. Useful outside the fx graph.
func NewStaticRatesHolder(cfg RatesConfig) *RatesHolder {
	holder := &RatesHolder{}
	holder.current.Store(cfg)
	return holder
}

// Current returns the rate snapshot in effect right now.
func (h *RatesHolder) Current() RatesConfig {
	return h.current.Load().(RatesConfig)
}

func readRates(v *viper.Viper) (RatesConfig, error) {
	raw := strings.TrimSpace(v.GetString("rates.usd_to_kes"))
	if raw == "" {
		return RatesConfig{}, errors.New("rates.usd_to_kes is required")
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return RatesConfig{}, err
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return RatesConfig{}, errors.New("rates.usd_to_kes must be positive")
	}
	return RatesConfig{USDToKES: rate}, nil
}
