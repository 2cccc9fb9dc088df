package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// FunctionsConfig holds the per-function on-chain names the gateway invokes
type FunctionsConfig struct {
	Mint              string `mapstructure:"mint"`
	List              string `mapstructure:"list"`
	Buy               string `mapstructure:"buy"`
	Cancel            string `mapstructure:"cancel"`
	Withdraw          string `mapstructure:"withdraw"`
	Burn              string `mapstructure:"burn"`
	UpdateDescription string `mapstructure:"update_description"`
}

// TypesConfig holds the on-chain type signatures of the marketplace shapes
type TypesConfig struct {
	Asset       string `mapstructure:"asset"`
	Listing     string `mapstructure:"listing"`
	Marketplace string `mapstructure:"marketplace"`
}

// LedgerConfig holds the ledger RPC and contract surface configuration
type LedgerConfig struct {
	RPCURL              string          `mapstructure:"rpc_url"`
	HTTPTimeout         time.Duration   `mapstructure:"http_timeout"`
	PackageID           string          `mapstructure:"package_id"`
	MarketModule        string          `mapstructure:"market_module"`
	NFTModule           string          `mapstructure:"nft_module"`
	Functions           FunctionsConfig `mapstructure:"functions"`
	Types               TypesConfig     `mapstructure:"types"`
	AdminAddress        string          `mapstructure:"admin_address"`
	MarketplaceObjectID string          `mapstructure:"marketplace_object_id"`
	GasBudget           uint64          `mapstructure:"gas_budget"`
}

// ListEventType returns the full Move event type for listing creation
func (c *LedgerConfig) ListEventType() string {
	return fmt.Sprintf("%s::%s::ListNFTEvent", c.PackageID, c.MarketModule)
}

// PurchaseEventType returns the full Move event type for purchases
func (c *LedgerConfig) PurchaseEventType() string {
	return fmt.Sprintf("%s::%s::PurchaseNFTEvent", c.PackageID, c.MarketModule)
}

// DelistEventType returns the full Move event type for cancellations
func (c *LedgerConfig) DelistEventType() string {
	return fmt.Sprintf("%s::%s::DelistNFTEvent", c.PackageID, c.MarketModule)
}

// MarketplaceType returns the struct type of the shared marketplace singleton
func (c *LedgerConfig) MarketplaceType() string {
	if c.Types.Marketplace != "" {
		return c.Types.Marketplace
	}
	return fmt.Sprintf("%s::%s::Marketplace", c.PackageID, c.MarketModule)
}

// PinningConfig holds the IPFS pinning provider configuration
type PinningConfig struct {
	APIURL      string `mapstructure:"api_url"`
	Token       string `mapstructure:"token"`
	GatewayHost string `mapstructure:"gateway_host"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int      `mapstructure:"idle_timeout"`  // in seconds
	CORSOrigins  []string `mapstructure:"cors_origins"`  // empty allows all
}

// AuthConfig holds authentication configuration for admin endpoints
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// PollConfig holds the background refresh intervals
type PollConfig struct {
	ListingsInterval time.Duration `mapstructure:"listings_interval"`
	ActivityInterval time.Duration `mapstructure:"activity_interval"`
	ActivityLimit    int           `mapstructure:"activity_limit"`
	WorkerPoolSize   int           `mapstructure:"worker_pool_size"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig  `mapstructure:"server"`
	Ledger     LedgerConfig  `mapstructure:"ledger"`
	Pinning    PinningConfig `mapstructure:"pinning"`
	NATS       NATSConfig    `mapstructure:"nats"`
	Auth       AuthConfig    `mapstructure:"auth"`
	Poll       PollConfig    `mapstructure:"poll"`
}

// PollerConfig holds configuration for the standalone feed poller
type PollerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Ledger     LedgerConfig `mapstructure:"ledger"`
	NATS       NATSConfig   `mapstructure:"nats"`
	Poll       PollConfig   `mapstructure:"poll"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	setLedgerDefaults(v)
	setPollDefaults(v)
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("pinning.api_url", "https://api.pinata.cloud")
	v.SetDefault("pinning.gateway_host", "gateway.pinata.cloud")
	v.SetDefault("pinning.max_file_size", 100*1024*1024) // 100MB
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "MARKET_REFRESH")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateLedger(&cfg.Ledger); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPollerConfig loads configuration for the feed poller
func LoadPollerConfig(configFile string, envPath string) (*PollerConfig, error) {
	v := configureViper("poller", configFile, envPath)

	setLedgerDefaults(v)
	setPollDefaults(v)
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "MARKET_REFRESH")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg PollerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateLedger(&cfg.Ledger); err != nil {
		return nil, err
	}
	if cfg.NATS.URL == "" {
		return nil, errors.New("nats.url is required")
	}
	return &cfg, nil
}

func setLedgerDefaults(v *viper.Viper) {
	v.SetDefault("ledger.rpc_url", "https://fullnode.testnet.sui.io")
	v.SetDefault("ledger.http_timeout", "30s")
	v.SetDefault("ledger.market_module", "nft_marketplace")
	v.SetDefault("ledger.nft_module", "nft_marketplace")
	v.SetDefault("ledger.gas_budget", 100_000_000)
	v.SetDefault("ledger.functions.mint", "mint_to_sender")
	v.SetDefault("ledger.functions.list", "list_nft_for_sale")
	v.SetDefault("ledger.functions.buy", "buy_nft")
	v.SetDefault("ledger.functions.cancel", "cancel_listing")
	v.SetDefault("ledger.functions.withdraw", "withdraw_marketplace_fees")
	v.SetDefault("ledger.functions.burn", "burn_nft")
	v.SetDefault("ledger.functions.update_description", "update_nft_description")
}

func setPollDefaults(v *viper.Viper) {
	v.SetDefault("poll.listings_interval", "15s")
	v.SetDefault("poll.activity_interval", "30s")
	v.SetDefault("poll.activity_limit", 100)
	v.SetDefault("poll.worker_pool_size", 10)
}

func validateLedger(cfg *LedgerConfig) error {
	if cfg.RPCURL == "" {
		return errors.New("ledger.rpc_url is required")
	}
	if cfg.PackageID == "" {
		return errors.New("ledger.package_id is required")
	}
	if cfg.Types.Asset == "" {
		cfg.Types.Asset = fmt.Sprintf("%s::%s::DevNetNFT", cfg.PackageID, cfg.NFTModule)
	}
	if cfg.Types.Listing == "" {
		cfg.Types.Listing = fmt.Sprintf("%s::%s::Listing", cfg.PackageID, cfg.MarketModule)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and
// environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("MARKETGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all recognized environment variables.
// Required for viper to map env vars to struct fields when no config file
// exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Ledger
		"ledger.rpc_url",
		"ledger.http_timeout",
		"ledger.package_id",
		"ledger.market_module",
		"ledger.nft_module",
		"ledger.admin_address",
		"ledger.marketplace_object_id",
		"ledger.gas_budget",
		"ledger.functions.mint",
		"ledger.functions.list",
		"ledger.functions.buy",
		"ledger.functions.cancel",
		"ledger.functions.withdraw",
		"ledger.functions.burn",
		"ledger.functions.update_description",
		"ledger.types.asset",
		"ledger.types.listing",
		"ledger.types.marketplace",
		// Pinning
		"pinning.api_url",
		"pinning.token",
		"pinning.gateway_host",
		"pinning.max_file_size",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Poll
		"poll.listings_interval",
		"poll.activity_interval",
		"poll.activity_limit",
		"poll.worker_pool_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
