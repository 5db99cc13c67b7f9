package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations/crates"
	"github.com/quipucords/chaski/pkg/integrations/github"
	"github.com/quipucords/chaski/pkg/provenance"
)

const (
	// AppName names the config and cache directories.
	AppName = "chaski"

	// LocalFile is looked up in the working directory.
	LocalFile = "chaski.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CHASKI"

	// DefaultCacheTTL bounds how long registry metadata is reused.
	DefaultCacheTTL = 24 * time.Hour
)

// Config holds every chaski setting.
type Config struct {
	GitHub          GitHub     `mapstructure:"github"`
	Crates          Crates     `mapstructure:"crates"`
	Cache           Cache      `mapstructure:"cache"`
	Provenance      Provenance `mapstructure:"provenance"`
	DependenciesDir string     `mapstructure:"dependencies_dir"` // relative to the distgit checkout unless absolute
	Upload          bool       `mapstructure:"upload"`
	CargoBin        string     `mapstructure:"cargo_bin"`
	RHPKGBin        string     `mapstructure:"rhpkg_bin"`
}

type GitHub struct {
	APIURL string `mapstructure:"api_url"`
	RawURL string `mapstructure:"raw_url"`
	Token  string `mapstructure:"token"`
}

type Crates struct {
	APIURL      string `mapstructure:"api_url"`
	DownloadURL string `mapstructure:"download_url"`
}

// Cache selects the registry metadata cache. A RedisURL takes precedence
// over Dir.
type Cache struct {
	Dir      string        `mapstructure:"dir"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"`
}

// Provenance configures where reports are stored besides the JSON file in
// the dependencies directory.
type Provenance struct {
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cacheDir, _ := CacheDir()
	return &Config{
		GitHub: GitHub{
			APIURL: github.DefaultAPIURL,
			RawURL: github.DefaultRawURL,
		},
		Crates: Crates{
			APIURL:      crates.DefaultAPIURL,
			DownloadURL: crates.DefaultDownloadURL,
		},
		Cache: Cache{
			Dir: cacheDir,
			TTL: DefaultCacheTTL,
		},
		Provenance: Provenance{
			MongoDatabase: provenance.DefaultMongoDatabase,
		},
		DependenciesDir: "dependencies",
		Upload:          true,
		CargoBin:        "cargo",
		RHPKGBin:        "rhpkg",
	}
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// File is used exclusively when set and must exist.
	File string

	// ConfigDir replaces the XDG config directory.
	ConfigDir string
}

// Load reads the configuration. It returns the file that was used, or ""
// when only defaults and the environment apply.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "bind environment")
	}

	path, err := findFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("github.api_url", d.GitHub.APIURL)
	v.SetDefault("github.raw_url", d.GitHub.RawURL)
	v.SetDefault("github.token", d.GitHub.Token)
	v.SetDefault("crates.api_url", d.Crates.APIURL)
	v.SetDefault("crates.download_url", d.Crates.DownloadURL)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("provenance.mongo_uri", d.Provenance.MongoURI)
	v.SetDefault("provenance.mongo_database", d.Provenance.MongoDatabase)
	v.SetDefault("dependencies_dir", d.DependenciesDir)
	v.SetDefault("upload", d.Upload)
	v.SetDefault("cargo_bin", d.CargoBin)
	v.SetDefault("rhpkg_bin", d.RHPKGBin)
}

func findFile(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if !fileExists(opts.File) {
			return "", errors.New(errors.ErrCodeNotFound, "config file not found: %s", opts.File)
		}
		return opts.File, nil
	}

	dir := opts.ConfigDir
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", nil
		}
	}
	for _, candidate := range []string{filepath.Join(dir, "config.yaml"), LocalFile} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if strings.TrimSpace(c.DependenciesDir) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "dependencies_dir must not be empty")
	}
	if !filepath.IsAbs(c.DependenciesDir) {
		if err := errors.ValidatePath(c.DependenciesDir); err != nil {
			return err
		}
	}
	for key, u := range map[string]string{
		"github.api_url":      c.GitHub.APIURL,
		"github.raw_url":      c.GitHub.RawURL,
		"crates.api_url":      c.Crates.APIURL,
		"crates.download_url": c.Crates.DownloadURL,
	} {
		if err := errors.ValidateURL(u); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", key)
		}
	}
	for key, bin := range map[string]string{"cargo_bin": c.CargoBin, "rhpkg_bin": c.RHPKGBin} {
		if bin == "" {
			return errors.New(errors.ErrCodeInvalidInput, "%s must not be empty", key)
		}
	}
	return nil
}

// DependenciesPath resolves the dependencies directory for a distgit
// checkout.
func (c *Config) DependenciesPath(distgit string) string {
	if filepath.IsAbs(c.DependenciesDir) {
		return c.DependenciesDir
	}
	return filepath.Join(distgit, c.DependenciesDir)
}

// ConfigDir returns $XDG_CONFIG_HOME/chaski, defaulting to ~/.config/chaski.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns $XDG_CACHE_HOME/chaski, defaulting to ~/.cache/chaski.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", AppName), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
