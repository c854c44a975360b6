package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvConfigDir      = "APPLICATION_CONFIGURATION_DIR"
	EnvProfilesActive = "APPLICATION_PROFILES_ACTIVE"
	EnvConfigPrefix   = "APPLICATION_CONFIGURATION_PREFIX"

	defaultConfigDir = "./configs"
)

// Defaults are loaded before any file or environment source, so every key
// the service reads has a value even without a configs directory.
var Defaults = map[string]interface{}{
	"app.name":          "NH AI Financial Chatbot",
	"app.version":       "v1.0",
	"app.status":        "Healthy",
	"app.model-version": "v1",

	"instance.id":        "local-worker",
	"instance.lock-file": "",

	"server.port":                 8080,
	"server.readTimeout":          15,
	"server.writeTimeout":         15,
	"server.idleTimeout":          60,
	"server.shutdownTimeout":      10,
	"server.cors.allowed-origins": []string{"*"},

	"latency.operation-type":      "SLEEP",
	"latency.min-block-period-ms": 100,
	"latency.max-block-period-ms": 500,

	"chat.response-format": "text",
	"chat.markers.loan":    []string{"대출", "금리"},
	"chat.markers.error":   []string{"오류"},

	"metrics.enabled":   true,
	"metrics.namespace": "chatbot",

	"logging.level":  "info",
	"logging.format": "text",
}

// Config wraps koanf.Koanf to provide configuration access for the application.
// @see https://github.com/knadh/koanf .
// @see Load documentation for more information.
// Config.prefix is both the prefix for the configuration keys and the prefix for the environment variables.
// prefix is empty for the root config.
// subconfig system is configured by appeding new keys to the prefix. @see GetSubConfig
type Config struct {
	k      *koanf.Koanf
	prefix string
}

// Options selects the configuration sources. Zero values are filled from the
// APPLICATION_* environment variables by OptionsFromEnv.
type Options struct {
	Dir       string
	Profiles  []string
	EnvPrefix string

	// dirExplicit is true when Dir came from a flag or the environment and
	// must therefore exist.
	dirExplicit bool
}

// OptionsFromEnv reads APPLICATION_CONFIGURATION_DIR, APPLICATION_PROFILES_ACTIVE
// and APPLICATION_CONFIGURATION_PREFIX.
func OptionsFromEnv() Options {
	opts := Options{
		Dir:       os.Getenv(EnvConfigDir),
		Profiles:  splitProfiles(os.Getenv(EnvProfilesActive)),
		EnvPrefix: os.Getenv(EnvConfigPrefix),
	}
	opts.dirExplicit = opts.Dir != ""
	return opts
}

// WithDir overrides the configuration directory. An empty dir keeps the current one.
func (o Options) WithDir(dir string) Options {
	if dir != "" {
		o.Dir = dir
		o.dirExplicit = true
	}
	return o
}

// WithProfiles overrides the active profiles. An empty list keeps the current ones.
func (o Options) WithProfiles(profiles []string) Options {
	if len(profiles) > 0 {
		o.Profiles = profiles
	}
	return o
}

// Load loads configuration with sources taken from the environment.
// @see LoadWithOptions
func Load() (*Config, error) {
	return LoadWithOptions(OptionsFromEnv())
}

// LoadWithOptions loads configuration in this order, later sources overriding earlier ones:
// built-in Defaults,
// "application.yaml" from the configuration directory (defaults to "./configs"),
// "application-<profile>.yaml" for all active profiles, in their defined order,
// environment variables, with the prefix "<EnvPrefix>_" if EnvPrefix is set and without prefix otherwise.
// A missing directory is only an error if it was named explicitly; the implicit
// "./configs" may be absent, in which case defaults and environment are used.
func LoadWithOptions(opts Options) (*Config, error) {
	k := koanf.New(".")

	// Initialize temporary logger for initial loading
	tempLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := k.Load(confmap.Provider(Defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default configuration: %w", err)
	}

	configDir := opts.Dir
	if configDir == "" {
		configDir = defaultConfigDir
	}
	tempLogger.Info("Loading configuration", "directory", configDir)

	if err := loadFiles(k, tempLogger, configDir, opts); err != nil {
		return nil, err
	}

	tempLogger.Info("Environment variable prefix", "prefix", opts.EnvPrefix)
	if err := loadEnv(k, opts.EnvPrefix); err != nil {
		tempLogger.Error("Failed to load environment variables", "prefix", opts.EnvPrefix, "error", err)
		return nil, err
	}

	tempLogger.Info("Configuration loaded successfully")
	return &Config{k: k, prefix: ""}, nil
}

func loadFiles(k *koanf.Koanf, tempLogger *slog.Logger, configDir string, opts Options) error {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if opts.dirExplicit {
			tempLogger.Error("Configuration directory does not exist", "directory", configDir)
			return fmt.Errorf("configuration directory does not exist: %s", configDir)
		}
		tempLogger.Warn("Configuration directory not found, using built-in defaults", "directory", configDir)
		return nil
	}

	baseConfigPath := filepath.Join(configDir, "application.yaml")
	if _, err := os.Stat(baseConfigPath); os.IsNotExist(err) {
		tempLogger.Error("Base configuration file does not exist", "file", baseConfigPath)
		return fmt.Errorf("base configuration file does not exist: %s", baseConfigPath)
	}

	tempLogger.Info("Loading base configuration", "file", baseConfigPath)
	if err := k.Load(file.Provider(baseConfigPath), yaml.Parser()); err != nil {
		tempLogger.Error("Failed to load base configuration", "file", baseConfigPath, "error", err)
		return fmt.Errorf("failed to load base configuration: %w", err)
	}

	tempLogger.Info("Active profiles", "profiles", opts.Profiles)
	for _, profile := range opts.Profiles {
		if profile == "" {
			continue
		}

		profileConfigPath := filepath.Join(configDir, fmt.Sprintf("application-%s.yaml", profile))
		if _, err := os.Stat(profileConfigPath); os.IsNotExist(err) {
			tempLogger.Warn("Profile configuration file not found", "profile", profile, "file", profileConfigPath)
			continue
		}

		tempLogger.Info("Loading profile configuration", "profile", profile, "file", profileConfigPath)
		if err := k.Load(file.Provider(profileConfigPath), yaml.Parser()); err != nil {
			tempLogger.Error("Failed to load profile configuration", "profile", profile, "file", profileConfigPath, "error", err)
			return fmt.Errorf("failed to load profile configuration %s: %w", profile, err)
		}
	}
	return nil
}

func loadEnv(k *koanf.Koanf, envPrefix string) error {
	known := envKeyIndex(k)

	if envPrefix != "" {
		if err := k.Load(env.Provider(envPrefix+"_", ".", func(s string) string {
			// Convert BRM_SERVER_PORT to server.port
			return resolveEnvKey(known, strings.TrimPrefix(s, envPrefix+"_"))
		}), nil); err != nil {
			return fmt.Errorf("failed to load environment variables with prefix: %w", err)
		}
		return nil
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		// Convert SERVER_PORT to server.port, INSTANCE_ID to instance.id
		return resolveEnvKey(known, s)
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// envKeyIndex maps keys loaded so far by their separator-free lower-case form,
// so SERVER_READTIMEOUT finds server.readTimeout and INSTANCE_LOCK_FILE finds instance.lock-file.
func envKeyIndex(k *koanf.Koanf) map[string]string {
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[normalizeKey(key)] = key
	}
	return known
}

func resolveEnvKey(known map[string]string, name string) string {
	if key, ok := known[normalizeKey(name)]; ok {
		return key
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.NewReplacer(".", "", "_", "", "-", "").Replace(key))
}

func splitProfiles(profiles string) []string {
	if profiles == "" {
		return nil
	}
	profileList := strings.Split(profiles, ",")
	for i, profile := range profileList {
		profileList[i] = strings.TrimSpace(profile)
	}
	return profileList
}

// buildKey constructs the full key with current prefix
func (c *Config) buildKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "." + key
}

// GetSubConfig returns a configuration instance for a specific sub-tree
func (c *Config) GetSubConfig(prefix string) *Config {
	return &Config{
		k:      c.k,
		prefix: c.buildKey(prefix),
	}
}

// GetString gets a string value by key
func (c *Config) GetString(key string) string {
	return c.k.String(c.buildKey(key))
}

// GetInt gets an integer value by key
func (c *Config) GetInt(key string) int {
	return c.k.Int(c.buildKey(key))
}

// GetBool gets a boolean value by key
func (c *Config) GetBool(key string) bool {
	return c.k.Bool(c.buildKey(key))
}

// GetStrings gets a string slice by key. A comma separated string
// (as set from an environment variable) is split into its parts.
func (c *Config) GetStrings(key string) []string {
	full := c.buildKey(key)
	if s, ok := c.k.Get(full).(string); ok {
		if s == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return c.k.Strings(full)
}

// Exists checks if a key exists
func (c *Config) Exists(key string) bool {
	return c.k.Exists(c.buildKey(key))
}

// GetStringWithDefault gets a string value with a default fallback
func (c *Config) GetStringWithDefault(key, defaultValue string) string {
	if c.Exists(key) {
		return c.GetString(key)
	}
	return defaultValue
}

// GetIntWithDefault gets an integer value with a default fallback
func (c *Config) GetIntWithDefault(key string, defaultValue int) int {
	if c.Exists(key) {
		return c.GetInt(key)
	}
	return defaultValue
}

// GetBoolWithDefault gets a boolean value with a default fallback
func (c *Config) GetBoolWithDefault(key string, defaultValue bool) bool {
	if c.Exists(key) {
		return c.GetBool(key)
	}
	return defaultValue
}

// GetStringsWithDefault gets a string slice with a default fallback
func (c *Config) GetStringsWithDefault(key string, defaultValue []string) []string {
	if c.Exists(key) {
		return c.GetStrings(key)
	}
	return defaultValue
}

// GetSecondsWithDefault reads an integer number of seconds as a time.Duration
func (c *Config) GetSecondsWithDefault(key string, defaultSeconds int) time.Duration {
	return time.Duration(c.GetIntWithDefault(key, defaultSeconds)) * time.Second
}

// GetLogLevel gets the log level from configuration with default fallback
func (c *Config) GetLogLevel(defaultLevel slog.Level) slog.Level {
	if c.Exists("logging.level") {
		levelStr := strings.ToLower(c.GetString("logging.level"))
		switch levelStr {
		case "debug":
			return slog.LevelDebug
		case "info":
			return slog.LevelInfo
		case "warn", "warning":
			return slog.LevelWarn
		case "error":
			return slog.LevelError
		default:
			return defaultLevel
		}
	}
	return defaultLevel
}

// Keys returns the direct child keys at the current level.
// At the root, single-segment keys (plain environment variables such as PATH) are skipped.
func (c *Config) Keys() []string {
	seen := make(map[string]bool)
	var keys []string

	prefixWithDot := ""
	if c.prefix != "" {
		prefixWithDot = c.prefix + "."
	}

	for _, key := range c.k.Keys() {
		if !strings.HasPrefix(key, prefixWithDot) {
			continue
		}
		relativeKey := strings.TrimPrefix(key, prefixWithDot)
		child, _, nested := strings.Cut(relativeKey, ".")
		if c.prefix == "" && !nested {
			continue
		}
		if !seen[child] {
			seen[child] = true
			keys = append(keys, child)
		}
	}
	return keys
}

// All returns all configuration below the current prefix as a flat map.
// At the root, environment variables that do not map onto a dotted key are left out.
func (c *Config) All() map[string]interface{} {
	result := make(map[string]interface{})
	if c.prefix == "" {
		for _, key := range c.k.Keys() {
			if strings.Contains(key, ".") {
				result[key] = c.k.Get(key)
			}
		}
		return result
	}

	prefixWithDot := c.prefix + "."
	for _, key := range c.k.Keys() {
		if strings.HasPrefix(key, prefixWithDot) {
			result[strings.TrimPrefix(key, prefixWithDot)] = c.k.Get(key)
		}
	}
	return result
}
