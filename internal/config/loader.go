package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GSCORE_"

// legacyEnv maps the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"CONTRACT_ADDRESS": "contract_address",
	"RPC_URL":          "rpc_url",
	"PRIVATE_KEY":      "private_key",
	"PORT":             "port",
	"GITHUB_TOKEN":     "github_token",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GSCORE_CONFIG is set
//  3. legacy unprefixed env (CONTRACT_ADDRESS, RPC_URL, PRIVATE_KEY, PORT, GITHUB_TOKEN)
//  4. env (prefix GSCORE_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvPrefix+"CONFIG"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file layer.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	legacy := env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// GSCORE_MAX_BATCH_SIZE -> max_batch_size; underscores match the koanf tags.
	prefixed := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ToLower(s)
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if cfg.Port > 0 && !k.Exists("addr") {
		cfg.Addr = fmt.Sprintf(":%d", cfg.Port)
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}
