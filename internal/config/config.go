// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения.
const EnvPrefix = "RAYDIUM_SWAP"

type Config struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	AMMProgramID   string        `mapstructure:"amm_program_id"`
	PrivateKey     string        `mapstructure:"private_key"`
	KeypairPath    string        `mapstructure:"keypair_path"`
	BuyAmount      string        `mapstructure:"buy_amount"`
	ComputeUnits   uint32        `mapstructure:"compute_units"`
	Commitment     string        `mapstructure:"commitment"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	RPCRateLimit   float64       `mapstructure:"rpc_rate_limit"`
	DebugLogging   bool          `mapstructure:"debug_logging"`
	JSONLogging    bool          `mapstructure:"json_logging"`
	LogFile        string        `mapstructure:"log_file"`

	// Заполняются в validateConfig.
	MinBuyAmount   decimal.Decimal    `mapstructure:"-"`
	ProgramID      solana.PublicKey   `mapstructure:"-"`
	CommitmentType rpc.CommitmentType `mapstructure:"-"`
}

const (
	DefaultAMMProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	DefaultComputeUnits = 100_000
	DefaultCommitment   = "confirmed"
)

// legacyEnv имена переменных окружения, которые использовались до введения префикса.
// Если задано несколько имён, берётся первое непустое.
var legacyEnv = map[string][]string{
	"rpc_url":        {"SOLANA_WS_URL", "SOLANA_RPC_URL"},
	"amm_program_id": {"RAYDIUM_AMM_PROGRAM_ID"},
	"private_key":    {"WALLET_PRIVATE_KEY"},
	"buy_amount":     {"BUY_AMOUNT"},
}

// ErrBuyAmountRequired возвращается, когда для свапа не задан buy_amount.
var ErrBuyAmountRequired = errors.New("buy_amount is required")

// LoadDotEnv загружает переменные из .env файлов. Отсутствующие файлы пропускаются.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig читает конфигурацию из файла (если path не пуст) и переменных окружения.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_url":         "",
		"amm_program_id":  DefaultAMMProgramID,
		"private_key":     "",
		"keypair_path":    "",
		"buy_amount":      "",
		"compute_units":   DefaultComputeUnits,
		"commitment":      DefaultCommitment,
		"confirm_timeout": time.Duration(0),
		"rpc_rate_limit":  0.0,
		"debug_logging":   false,
		"json_logging":    false,
		"log_file":        "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := loadEnvironmentVariables(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv проверяется раньше привязанных имен, поэтому переменная
	// с префиксом имеет приоритет над устаревшей.
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", strings.Join(names, ", "), err)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if err := validateURL(cfg.RPCURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}

	programID, err := solana.PublicKeyFromBase58(cfg.AMMProgramID)
	if err != nil {
		return fmt.Errorf("invalid amm_program_id %q: %w", cfg.AMMProgramID, err)
	}
	cfg.ProgramID = programID

	// buy_amount нужен только свапу, см. RequireBuyAmount.
	cfg.BuyAmount = strings.TrimSpace(cfg.BuyAmount)
	if cfg.BuyAmount != "" {
		minBuy, err := decimal.NewFromString(cfg.BuyAmount)
		if err != nil {
			return fmt.Errorf("invalid buy_amount %q: %w", cfg.BuyAmount, err)
		}
		if minBuy.IsNegative() {
			return fmt.Errorf("buy_amount must not be negative: %s", minBuy)
		}
		cfg.MinBuyAmount = minBuy
	}

	if cfg.ComputeUnits == 0 {
		return errors.New("compute_units must be positive")
	}

	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		cfg.CommitmentType = rpc.CommitmentType(cfg.Commitment)
	default:
		return fmt.Errorf("invalid commitment %q: expected processed, confirmed or finalized", cfg.Commitment)
	}

	if cfg.ConfirmTimeout < 0 {
		return errors.New("confirm_timeout must not be negative")
	}
	if cfg.RPCRateLimit < 0 {
		return errors.New("rpc_rate_limit must not be negative")
	}
	return nil
}

// RequireBuyAmount проверяет, что задана минимальная сумма покупки для проверки баланса.
func (c *Config) RequireBuyAmount() error {
	if c.BuyAmount == "" {
		return ErrBuyAmountRequired
	}
	return nil
}

func validateURL(rawURL string, schemes ...string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if parsed.Host == "" {
		return errors.New("URL host is empty")
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("invalid URL protocol %q", parsed.Scheme)
}
