// Package config loads frood application configuration from a YAML file and FROOD_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/toyz/frood/internal/logging"
	"github.com/toyz/frood/pkg/frood"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "FROOD"

// DefaultReadHeaderTimeout is used when server.read_header_timeout is not set
const DefaultReadHeaderTimeout = 10 * time.Second

// Adapters lists the server adapters accepted in server.adapter
var Adapters = []string{"http", "chi", "gin", "echo", "fiber"}

// Config is the application configuration
type Config struct {
	Log        logging.Config          `mapstructure:"log"`
	Server     ServerConfig            `mapstructure:"server"`
	Dispatch   DispatchConfig          `mapstructure:"dispatch"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
	BaseRoutes []BaseRouteConfig       `mapstructure:"base_routes"`
	Modules    map[string]ModuleConfig `mapstructure:"modules"`
	Remotes    map[string]RemoteConfig `mapstructure:"remotes"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Adapter         string        `mapstructure:"adapter"`
	UploadDir       string        `mapstructure:"upload_dir"`
	MaxMemoryMB     int           `mapstructure:"max_memory_mb"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// ReadHeaderTimeout bounds how long a client may take to send request headers.
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// DispatchConfig configures the dispatcher
type DispatchConfig struct {
	MaxForwards int    `mapstructure:"max_forwards"`
	Renderer    string `mapstructure:"renderer"`
}

// MetricsConfig configures the Prometheus dispatch observer
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// BaseRouteConfig maps a URI prefix to modules
type BaseRouteConfig struct {
	Prefix  string   `mapstructure:"prefix"`
	Modules []string `mapstructure:"modules"`
}

// ModuleConfig configures one module
type ModuleConfig struct {
	SubModules map[string]string `mapstructure:"sub_modules"`
	API        bool              `mapstructure:"api"`
	Patterns   []PatternConfig   `mapstructure:"patterns"`
	NoFallback bool              `mapstructure:"no_fallback"`
}

// PatternConfig is one entry of a module's pattern table
type PatternConfig struct {
	Pattern    string            `mapstructure:"pattern"`
	Module     string            `mapstructure:"module"`
	SubModule  string            `mapstructure:"sub_module"`
	Controller string            `mapstructure:"controller"`
	Action     string            `mapstructure:"action"`
	Parameters map[string]string `mapstructure:"parameters"`
}

// RemoteConfig names a module on another host
type RemoteConfig struct {
	Host      string        `mapstructure:"host"`
	Module    string        `mapstructure:"module"`
	SubModule string        `mapstructure:"sub_module"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Load reads the configuration file at path, or frood.yaml in the working directory when
// path is empty, and applies FROOD_ environment overrides such as FROOD_SERVER_ADDR.
// A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("frood")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.adapter", "http")
	v.SetDefault("server.upload_dir", "")
	v.SetDefault("server.max_memory_mb", 32)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.read_header_timeout", DefaultReadHeaderTimeout)

	v.SetDefault("dispatch.max_forwards", frood.DefaultMaxForwards)
	v.SetDefault("dispatch.renderer", "json")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "frood")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the values frood.Configuration does not check itself
func (c *Config) Validate() error {
	var problems []string

	if !contains(Adapters, c.Server.Adapter) {
		problems = append(problems, fmt.Sprintf("server.adapter must be one of %s, got %q",
			strings.Join(Adapters, ", "), c.Server.Adapter))
	}
	if c.Dispatch.MaxForwards < 0 {
		problems = append(problems, "dispatch.max_forwards must not be negative")
	}
	if _, err := frood.RendererByName(c.Dispatch.Renderer); err != nil {
		problems = append(problems, "dispatch.renderer: "+err.Error())
	}
	for _, name := range sortedKeys(c.Remotes) {
		r := c.Remotes[name]
		if r.Host == "" || r.Module == "" {
			problems = append(problems, fmt.Sprintf("remotes.%s needs a host and a module", name))
		}
	}

	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Frood builds the routing configuration and validates it
func (c *Config) Frood() (*frood.Configuration, error) {
	fc := frood.NewConfiguration()

	for _, name := range sortedKeys(c.Modules) {
		mc := c.Modules[name]
		m := frood.NewModuleConfiguration(name)
		for sub, path := range mc.SubModules {
			m.WithSubModule(sub, path)
		}
		m.API = mc.API
		m.NoFallback = mc.NoFallback
		for _, p := range mc.Patterns {
			m.Patterns = append(m.Patterns, frood.PatternRoute{
				Pattern:    frood.RoutePattern(p.Pattern),
				Module:     p.Module,
				SubModule:  p.SubModule,
				Controller: p.Controller,
				Action:     p.Action,
				Parameters: p.Parameters,
			})
		}
		fc.AddModule(m)
	}

	for _, route := range c.BaseRoutes {
		fc.AddBaseRoute(route.Prefix, route.Modules...)
	}

	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return fc, nil
}

// DispatcherOptions returns the dispatcher options derived from the configuration
func (c *Config) DispatcherOptions() []frood.DispatcherOption {
	name := c.Dispatch.Renderer
	return []frood.DispatcherOption{
		frood.WithMaxForwards(c.Dispatch.MaxForwards),
		frood.WithDefaultRenderer(func() frood.Renderer {
			r, err := frood.RendererByName(name)
			if err != nil {
				return frood.JSONRenderer{}
			}
			return r
		}),
	}
}

// Remote returns the remote configured under name
func (c *Config) Remote(name string, opts ...frood.RemoteOption) (*frood.Remote, error) {
	rc, ok := c.Remotes[name]
	if !ok {
		return nil, &frood.ConfigurationError{Key: "remotes", Message: fmt.Sprintf("remote %q is not configured", name)}
	}
	if rc.Timeout > 0 {
		opts = append([]frood.RemoteOption{frood.WithHTTPClient(&http.Client{Timeout: rc.Timeout})}, opts...)
	}
	return frood.NewRemote(rc.Host, rc.Module, rc.SubModule, opts...), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
