// Package config loads daemon settings from defaults, an optional config
// file and DNS_ environment variables, in that order of precedence.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds the daemon configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the UDP port the server binds to on all interfaces.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// Upstream is a list of upstream DNS servers in ip:port format.
	Upstream []string `koanf:"upstream" validate:"required,min=1,dive,ip_port"`

	// UpstreamTimeout bounds each forwarded round trip.
	UpstreamTimeout time.Duration `koanf:"upstream_timeout" validate:"gt=0"`

	// Parallel queries every upstream at once instead of in order.
	Parallel bool `koanf:"parallel"`

	// BufferSize is the datagram buffer for both inbound and upstream reads.
	BufferSize int `koanf:"buffer_size" validate:"gte=512,lte=65535"`

	CacheSize int `koanf:"cache_size" validate:"required,gte=1"`

	// DisableCache disables DNS response caching when set to true.
	DisableCache bool `koanf:"disable_cache"`

	// Workers caps concurrently handled datagrams.
	Workers int `koanf:"workers" validate:"gte=1"`

	// RateLimit is the accepted queries per second; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=1"`

	// SnapshotPath is a bbolt file used to persist the cache across restarts.
	SnapshotPath string `koanf:"snapshot_path"`

	BlocklistFiles     []string `koanf:"blocklist_files"`
	BlocklistDB        string   `koanf:"blocklist_db"`
	BlocklistStrategy  string   `koanf:"blocklist_strategy" validate:"oneof=refused nxdomain"`
	BlocklistCacheSize int      `koanf:"blocklist_cache_size" validate:"gte=0"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                "prod",
	LogLevel:           "info",
	Port:               8053,
	Upstream:           []string{"8.8.8.8:53"},
	UpstreamTimeout:    5 * time.Second,
	Parallel:           false,
	BufferSize:         512,
	CacheSize:          10000,
	DisableCache:       false,
	Workers:            64,
	RateLimit:          0,
	RateBurst:          100,
	SnapshotPath:       "",
	BlocklistFiles:     []string{},
	BlocklistDB:        "",
	BlocklistStrategy:  "refused",
	BlocklistCacheSize: 1000,
}

// ListenAddr returns the address the transport binds to.
func (c *AppConfig) ListenAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// validIPPort validates whether the provided field value is a valid IP address and port combination.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader loads DNS_-prefixed environment variables. Values containing
// spaces or commas become lists. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads a config file, choosing the parser by extension.
var fileLoader = func(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".toml":
		parser = toml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file extension: %q", filepath.Ext(path))
	}
	return k.Load(file.Provider(path), parser)
}

// registerValidation registers the "ip_port" tag with the provided validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load builds an AppConfig from defaults, the optional file at path and the
// environment, then validates it. An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field. Callers that change a loaded config, such as
// command-line overrides, validate again.
func (c *AppConfig) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := registerValidation(validate); err != nil {
		return fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
