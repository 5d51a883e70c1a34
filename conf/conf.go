package conf

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/utils"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "DISPUTE_CONFIG"

// EnvPrefix prefixes env overrides of single keys, e.g. DISPUTE_DISPUTER_PASSWORD.
const EnvPrefix = "DISPUTE"

var ErrInvalidConfig = errors.New("invalid config")

type Conf struct {
	Chain    Chain    `mapstructure:"chain" toml:"chain"`
	Roots    Roots    `mapstructure:"roots" toml:"roots"`
	Disputer Disputer `mapstructure:"disputer" toml:"disputer"`
	Retry    Retry    `mapstructure:"retry" toml:"retry"`
	Tx       Tx       `mapstructure:"tx" toml:"tx"`
	Cache    Cache    `mapstructure:"cache" toml:"cache"`
	Kafka    Kafka    `mapstructure:"kafka" toml:"kafka"`
	Server   Server   `mapstructure:"server" toml:"server"`
	Log      Log      `mapstructure:"log" toml:"log"`
}

type Chain struct {
	ID                  uint64  `mapstructure:"id" toml:"id"`
	RPC                 string  `mapstructure:"rpc" toml:"rpc"`
	Distributor         string  `mapstructure:"distributor" toml:"distributor"`
	DistributionCreator string  `mapstructure:"distribution_creator" toml:"distribution_creator"`
	ABIDir              string  `mapstructure:"abi_dir" toml:"abi_dir"`
	RateLimit           float64 `mapstructure:"rate_limit" toml:"rate_limit"`
	RateBurst           int     `mapstructure:"rate_burst" toml:"rate_burst"`
}

type Roots struct {
	BaseURL    string `mapstructure:"base_url" toml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" toml:"timeout_sec"`
}

type Disputer struct {
	KeystoreDir string `mapstructure:"keystore_dir" toml:"keystore_dir"`
	Address     string `mapstructure:"address" toml:"address"`
	Password    string `mapstructure:"password" toml:"password"`
	DryRun      bool   `mapstructure:"dry_run" toml:"dry_run"`
}

type Retry struct {
	Retries    int     `mapstructure:"retries" toml:"retries"`
	DelayMs    int     `mapstructure:"delay_ms" toml:"delay_ms"`
	Multiplier float64 `mapstructure:"multiplier" toml:"multiplier"`
}

type Tx struct {
	ConfirmationTimeoutSec  int     `mapstructure:"confirmation_timeout_sec" toml:"confirmation_timeout_sec"`
	GasFeeCapAdjustmentRate int64   `mapstructure:"gas_fee_cap_adjustment_rate" toml:"gas_fee_cap_adjustment_rate"`
	GasLimitAdjustmentRate  float64 `mapstructure:"gas_limit_adjustment_rate" toml:"gas_limit_adjustment_rate"`
	GasLimit                uint64  `mapstructure:"gas_limit" toml:"gas_limit"`
	MaxFeePerGasGwei        int64   `mapstructure:"max_fee_per_gas_gwei" toml:"max_fee_per_gas_gwei"`
	MaxPriorityFeeGwei      int64   `mapstructure:"max_priority_fee_gwei" toml:"max_priority_fee_gwei"`
}

type Cache struct {
	// Driver is "", "bolt" or "redis".
	Driver        string `mapstructure:"driver" toml:"driver"`
	BoltPath      string `mapstructure:"bolt_path" toml:"bolt_path"`
	RedisAddr     string `mapstructure:"redis_addr" toml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" toml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" toml:"redis_db"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers" toml:"brokers"`
	Topic   string   `mapstructure:"topic" toml:"topic"`
}

type Server struct {
	StatusAddr  string `mapstructure:"status_addr" toml:"status_addr"`
	MetricsAddr string `mapstructure:"metrics_addr" toml:"metrics_addr"`
	IntervalSec int    `mapstructure:"interval_sec" toml:"interval_sec"`
}

type Log struct {
	BotName      string `mapstructure:"bot_name" toml:"bot_name"`
	Level        string `mapstructure:"level" toml:"level"`
	LogstashAddr string `mapstructure:"logstash_addr" toml:"logstash_addr"`
}

// Default is the config written by `config init`. It targets Polygon.
func Default() Conf {
	home, _ := os.UserHomeDir()
	return Conf{
		Chain: Chain{
			ID:                  137,
			RPC:                 "https://polygon-rpc.com",
			Distributor:         "0x3Ef3D8bA38EBe18DB133cEc108f4D14CE00Dd9Ae",
			DistributionCreator: "0x8BB4C975Ff3c250e0ceEA271728547f3802B36Fd",
			RateLimit:           10,
			RateBurst:           10,
		},
		Roots: Roots{
			BaseURL:    "https://storage.googleapis.com/merkl-production-data",
			TimeoutSec: 30,
		},
		Disputer: Disputer{
			KeystoreDir: filepath.Join(home, ".config", "merkl-dispute", "keystore"),
		},
		Retry: Retry{
			Retries:    utils.DefaultRetryPolicy.Retries,
			DelayMs:    int(utils.DefaultRetryPolicy.Delay / time.Millisecond),
			Multiplier: utils.DefaultRetryPolicy.Multiplier,
		},
		Tx: Tx{
			ConfirmationTimeoutSec:  120,
			GasFeeCapAdjustmentRate: 2,
			GasLimitAdjustmentRate:  1.2,
		},
		Cache: Cache{
			BoltPath: filepath.Join(home, ".config", "merkl-dispute", "cache.db"),
		},
		Kafka: Kafka{Brokers: []string{}},
		Server: Server{
			StatusAddr:  "0.0.0.0:8080",
			MetricsAddr: "0.0.0.0:9091",
			IntervalSec: 300,
		},
		Log: Log{BotName: "merkl-dispute", Level: "info"},
	}
}

// DefaultPath is ~/.config/merkl-dispute/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "merkl-dispute", "config.toml"), nil
}

// ResolvePath picks the explicit path, then $DISPUTE_CONFIG, then the
// default location.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	return DefaultPath()
}

// WriteDefault writes Default() to path unless a file is already there.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return false, fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(Default()); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// Load reads the TOML file at path, applies DISPUTE_* env overrides and
// validates the result. A missing default file is created first.
func Load(path string) (*Conf, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if path == "" && os.Getenv(EnvConfigPath) == "" {
		if _, err := WriteDefault(resolved); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(resolved)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", resolved, err)
	}

	c := Default()
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Conf) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return utils.WrapError(ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Chain.ID == 0:
		return invalid("chain.id is required")
	case c.Chain.RPC == "":
		return invalid("chain.rpc is required")
	case !common.IsHexAddress(c.Chain.Distributor):
		return invalid("chain.distributor %q is not an address", c.Chain.Distributor)
	case !common.IsHexAddress(c.Chain.DistributionCreator):
		return invalid("chain.distribution_creator %q is not an address", c.Chain.DistributionCreator)
	case c.Roots.BaseURL == "":
		return invalid("roots.base_url is required")
	case c.Retry.Retries < 0 || c.Retry.DelayMs < 0:
		return invalid("retry values must not be negative")
	case c.Server.IntervalSec <= 0:
		return invalid("server.interval_sec must be positive, got %d", c.Server.IntervalSec)
	case c.Tx.ConfirmationTimeoutSec <= 0:
		return invalid("tx.confirmation_timeout_sec must be positive, got %d", c.Tx.ConfirmationTimeoutSec)
	case c.Disputer.Address != "" && !common.IsHexAddress(c.Disputer.Address):
		return invalid("disputer.address %q is not an address", c.Disputer.Address)
	}
	switch c.Cache.Driver {
	case "", "bolt", "redis":
	default:
		return invalid("cache.driver %q must be bolt or redis", c.Cache.Driver)
	}
	return nil
}

func (c *Conf) RetryPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		Retries:    c.Retry.Retries,
		Delay:      time.Duration(c.Retry.DelayMs) * time.Millisecond,
		Multiplier: c.Retry.Multiplier,
	}
}

func (c *Conf) TxParams() types.TxManagerParams {
	return types.TxManagerParams{
		ConfirmationTimeout:        time.Duration(c.Tx.ConfirmationTimeoutSec) * time.Second,
		ETHGasFeeCapAdjustmentRate: c.Tx.GasFeeCapAdjustmentRate,
		ETHGasLimitAdjustmentRate:  c.Tx.GasLimitAdjustmentRate,
		GasLimit:                   c.Tx.GasLimit,
	}
}

// TxOverrides turns the optional fee caps into overrides; zero means estimate.
func (c *Conf) TxOverrides() types.TxOverrides {
	var o types.TxOverrides
	if c.Tx.MaxFeePerGasGwei > 0 {
		o.GasFeeCap = new(big.Int).Mul(big.NewInt(c.Tx.MaxFeePerGasGwei), big.NewInt(1e9))
	}
	if c.Tx.MaxPriorityFeeGwei > 0 {
		o.GasTipCap = new(big.Int).Mul(big.NewInt(c.Tx.MaxPriorityFeeGwei), big.NewInt(1e9))
	}
	return o
}
