package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type EngineConfig struct {
	Env           string `yaml:"env" env:"RATE_ENGINE_ENV" env-default:"dev"`
	HTTPServer    `yaml:"http_server"`
	Exchange      `yaml:"exchange"`
	FiatReference `yaml:"fiat_reference"`
	Pricing       `yaml:"pricing"`
	OrderDB       `yaml:"order_db"`
	Telegram      `yaml:"telegram"`
}

type HTTPServer struct {
	Addr              string `yaml:"addr" env:"RATE_ENGINE_ADDR" env-default:":8080"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec" env-default:"10"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes" env-default:"1048576"`
}

type Exchange struct {
	SymbolsEndpoint   string  `yaml:"symbols_endpoint" env-default:"https://api.binance.com/api/v3/exchangeInfo"`
	TickerEndpoint    string  `yaml:"ticker_endpoint" env-default:"https://api.binance.com/api/v3/ticker/price"`
	CatalogRefreshSec int     `yaml:"catalog_refresh_sec" env-default:"3600"`
	CacheTTLSec       int     `yaml:"cache_ttl_sec" env-default:"60"`
	QuotesPerSecond   float64 `yaml:"quotes_per_second" env-default:"10"`
	QuotesBurst       int     `yaml:"quotes_burst" env-default:"20"`
}

type FiatReference struct {
	Endpoint string `yaml:"endpoint" env-default:"https://api.frankfurter.app"`
}

type Pricing struct {
	// Mode is "market" or "manual".
	Mode          string                        `yaml:"mode" env:"RATE_ENGINE_PRICING_MODE" env-default:"market"`
	BridgeAsset   string                        `yaml:"bridge_asset" env-default:"USDC"`
	AnchorFiat    string                        `yaml:"anchor_fiat" env-default:"USD"`
	DefaultFeePct float64                       `yaml:"default_fee_pct" env-default:"2.5"`
	CryptoAssets  []string                      `yaml:"crypto_assets"`
	FiatAssets    []string                      `yaml:"fiat_assets"`
	ManualRates   map[string]map[string]float64 `yaml:"manual_rates_by_fee"`
}

type OrderDB struct {
	Dsn string `yaml:"dsn" env:"RATE_ENGINE_ORDER_DB_DSN"`
}

type Telegram struct {
	Enabled     bool   `yaml:"enabled" env-default:"false"`
	BotToken    string `yaml:"bot_token" env:"RATE_ENGINE_TG_BOT_TOKEN"`
	AdminChatID int64  `yaml:"admin_chat_id" env:"RATE_ENGINE_TG_ADMIN_CHAT_ID"`
}

func MustLoad() *EngineConfig {
	configPath := os.Getenv("RATE_ENGINE_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("RATE_ENGINE_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return cfg
}

// Load reads the config file at path. An empty path falls back to
// environment variables and tag defaults only.
func Load(path string) (*EngineConfig, error) {
	var cfg EngineConfig
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
