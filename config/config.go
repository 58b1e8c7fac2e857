package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"bountyvault/core/state"
	"bountyvault/crypto"
	"bountyvault/native/bounty"
)

const (
	defaultRPCAddress  = "127.0.0.1:8645"
	defaultDataDir     = "./bounty-data"
	defaultNetworkName = "bounty-local"
	defaultRateLimit   = 20
	defaultRateBurst   = 40
)

type Config struct {
	RPCAddress    string `toml:"RPCAddress"`
	DataDir       string `toml:"DataDir"`
	NetworkName   string `toml:"NetworkName"`
	AuthSecretEnv string `toml:"AuthSecretEnv"`
	AuthIssuer    string `toml:"AuthIssuer"`
	AuthAudience  string `toml:"AuthAudience"`
	RateLimit     int    `toml:"RateLimit"`
	RateBurst     int    `toml:"RateBurst"`
	ReadTimeout   string `toml:"ReadTimeout"`
	WriteTimeout  string `toml:"WriteTimeout"`

	Genesis []GenesisAccount `toml:"Genesis"`
}

// GenesisAccount seeds one account balance the first time the daemon starts
// against a fresh data directory. Without at least one allocation no identity
// holds funds, so no vault could ever be created over RPC.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Amount  string `toml:"Amount"`
	Mint    string `toml:"Mint,omitempty"`
}

// Load reads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = defaultNetworkName
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if strings.TrimSpace(cfg.ReadTimeout) == "" {
		cfg.ReadTimeout = "15s"
	}
	if strings.TrimSpace(cfg.WriteTimeout) == "" {
		cfg.WriteTimeout = "15s"
	}
}

// Validate checks configuration values that would only fail at serve time.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.ReadTimeout); err != nil {
		return fmt.Errorf("config: invalid ReadTimeout: %w", err)
	}
	if _, err := time.ParseDuration(c.WriteTimeout); err != nil {
		return fmt.Errorf("config: invalid WriteTimeout: %w", err)
	}
	if c.AuthSecretEnv != "" && strings.TrimSpace(os.Getenv(c.AuthSecretEnv)) == "" {
		return fmt.Errorf("config: AuthSecretEnv %q named but environment variable is empty", c.AuthSecretEnv)
	}
	if _, err := c.GenesisAllocations(); err != nil {
		return err
	}
	return nil
}

// GenesisAllocations parses the configured genesis accounts into the form the
// state manager applies on first start.
func (c *Config) GenesisAllocations() ([]state.GenesisAccount, error) {
	if len(c.Genesis) == 0 {
		return nil, nil
	}
	allocations := make([]state.GenesisAccount, 0, len(c.Genesis))
	for i, entry := range c.Genesis {
		addr, err := crypto.ParseIdentity(entry.Address)
		if err != nil {
			return nil, fmt.Errorf("config: Genesis[%d].Address: %w", i, err)
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(entry.Amount), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: Genesis[%d].Amount must be an unsigned decimal integer", i)
		}
		asset := bounty.NativeAsset()
		if strings.TrimSpace(entry.Mint) != "" {
			mint, err := crypto.ParseIdentity(entry.Mint)
			if err != nil {
				return nil, fmt.Errorf("config: Genesis[%d].Mint: %w", i, err)
			}
			if asset, err = bounty.TokenAsset(mint); err != nil {
				return nil, fmt.Errorf("config: Genesis[%d].Mint: %w", i, err)
			}
		}
		allocations = append(allocations, state.GenesisAccount{
			Address: addr,
			Asset:   asset,
			Amount:  amount,
		})
	}
	return allocations, nil
}

// AuthSecret resolves the JWT signing secret via the configured environment
// indirection. Empty means authentication is disabled.
func (c *Config) AuthSecret() string {
	if strings.TrimSpace(c.AuthSecretEnv) == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.AuthSecretEnv))
}

// ReadTimeoutDuration returns the parsed read timeout.
func (c *Config) ReadTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ReadTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// WriteTimeoutDuration returns the parsed write timeout.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.WriteTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
