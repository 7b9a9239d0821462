package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/aidebug/aidebug/internal/cache"
)

// Config represents the aidebug configuration.
type Config struct {
	Provider        string        `json:"provider" mapstructure:"provider"`
	Model           string        `json:"model" mapstructure:"model"`
	Temperature     float64       `json:"temperature" mapstructure:"temperature"`
	TopP            float64       `json:"topP" mapstructure:"topP"`
	MaxOutputTokens int           `json:"maxOutputTokens" mapstructure:"maxOutputTokens"`
	Format          string        `json:"format" mapstructure:"format"`
	Cache           CacheConfig   `json:"cache" mapstructure:"cache"`
	Privacy         PrivacyConfig `json:"privacy" mapstructure:"privacy"`
	Project         ProjectConfig `json:"project" mapstructure:"project"`
	Watch           WatchConfig   `json:"watch" mapstructure:"watch"`
}

// CacheConfig controls the suggestion cache.
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Backend string `json:"backend" mapstructure:"backend"`
	Dir     string `json:"dir,omitempty" mapstructure:"dir"`
	Keying  string `json:"keying" mapstructure:"keying"`
}

// PrivacyConfig controls redaction before content leaves the machine.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" mapstructure:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty" mapstructure:"redactPaths"`
	RulesPath     string   `json:"rulesPath,omitempty" mapstructure:"rulesPath"`
}

// ProjectConfig controls which project files can be selected.
type ProjectConfig struct {
	MaxFileBytes int64    `json:"maxFileBytes" mapstructure:"maxFileBytes"`
	Extensions   []string `json:"extensions" mapstructure:"extensions"`
	IgnoreDirs   []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMillis int `json:"debounceMillis" mapstructure:"debounceMillis"`
}

var (
	providers = []string{"openai", "anthropic", "gemini", "google", "ollama", "lmstudio"}
	formats   = []string{"text", "json", "markdown"}
)

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		Temperature:     1,
		TopP:            1,
		MaxOutputTokens: 4096,
		Format:          "text",
		Cache: CacheConfig{
			Enabled: true,
			Backend: cache.BackendFile,
			Keying:  string(cache.KeyByQuery),
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*", "**/*.pem", "**/*.key"},
		},
		Project: ProjectConfig{
			MaxFileBytes: 1 << 20,
			Extensions: []string{
				".py", ".md", ".html", ".css", ".scss", ".java", ".xml", ".c", ".cpp", ".h",
				".lock", ".toml", ".rs", ".json", ".go", ".js", ".jsx", ".ts", ".tsx",
				".rb", ".php", ".sh", ".yaml", ".yml", ".sql", ".txt", ".cfg", ".ini",
			},
			IgnoreDirs: []string{"env", "venv", "__pycache__", "node_modules", "vendor", "target", "build", "dist"},
		},
		Watch: WatchConfig{DebounceMillis: 500},
	}
}

// ConfigDir returns the platform-appropriate config directory for aidebug.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aidebug"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "aidebug"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "aidebug"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "aidebug"), nil
	default:
		return filepath.Join(home, ".config", "aidebug"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// flatten turns cfg into dotted viper keys.
func flatten(cfg Config) map[string]any {
	data, _ := json.Marshal(cfg)
	var tree map[string]any
	_ = json.Unmarshal(data, &tree)

	out := map[string]any{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if sub, ok := v.(map[string]any); ok {
				walk(prefix+k+".", sub)
				continue
			}
			out[prefix+k] = v
		}
	}
	walk("", tree)
	// omitempty fields still need a default so env and Set can reach them.
	for _, k := range []string{"cache.dir", "privacy.redactPaths", "privacy.rulesPath"} {
		if _, ok := out[k]; !ok {
			out[k] = ""
		}
	}
	return out
}

// Keys lists every settable key in dotted form, sorted.
func Keys() []string {
	m := flatten(Default())
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newViper(base Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("AIDEBUG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range flatten(base) {
		v.SetDefault(k, val)
	}
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// readFile merges the config file into v. A missing file is not an error.
func readFile(v *viper.Viper) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// LoadFile returns the defaults merged with the config file, ignoring the
// environment.
func LoadFile() (Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	for k, val := range flatten(Default()) {
		v.SetDefault(k, val)
	}
	if err := readFile(v); err != nil {
		return Config{}, err
	}
	return decode(v)
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags and is keyed by dotted
// config key; empty values are ignored.
func Load(overrides map[string]string) (Config, error) {
	v := newViper(Default())
	if err := readFile(v); err != nil {
		return Config{}, err
	}
	for k, val := range overrides {
		if val == "" {
			continue
		}
		if !isKey(k) {
			return Config{}, fmt.Errorf("unknown config key: %s", k)
		}
		v.Set(k, val)
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isKey(key string) bool {
	for _, k := range Keys() {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// SetField sets a single config field by dotted key. List values are comma
// separated. Returns an error if the key is unknown or the value invalid.
func SetField(cfg *Config, key, value string) error {
	if !isKey(key) {
		return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	v := viper.New()
	for k, val := range flatten(*cfg) {
		v.SetDefault(k, val)
	}
	v.Set(key, value)
	next, err := decode(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// Validate checks enumerated values and ranges.
func (c Config) Validate() error {
	var errs []error
	if !contains(providers, c.Provider) {
		errs = append(errs, fmt.Errorf("unknown provider %q (valid: %s)", c.Provider, strings.Join(providers, ", ")))
	}
	if !contains(formats, c.Format) {
		errs = append(errs, fmt.Errorf("unknown format %q (valid: %s)", c.Format, strings.Join(formats, ", ")))
	}
	if c.Cache.Backend != cache.BackendFile && c.Cache.Backend != cache.BackendSQLite {
		errs = append(errs, fmt.Errorf("unknown cache backend %q (valid: %s, %s)", c.Cache.Backend, cache.BackendFile, cache.BackendSQLite))
	}
	if _, err := cache.ParseKeying(c.Cache.Keying); err != nil {
		errs = append(errs, err)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %v out of range (0-2)", c.Temperature))
	}
	if c.TopP < 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("topP %v out of range (0-1)", c.TopP))
	}
	if c.MaxOutputTokens < 0 {
		errs = append(errs, fmt.Errorf("maxOutputTokens must not be negative"))
	}
	if c.Watch.DebounceMillis < 0 {
		errs = append(errs, fmt.Errorf("watch.debounceMillis must not be negative"))
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
