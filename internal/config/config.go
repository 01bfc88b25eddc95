package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/mangawatch/internal/providers/sites"
)

// Environment variables read on top of the config file. They may also come
// from a .env file.
const (
	EnvUserAgent = "MANGAWATCH_USER_AGENT"
	EnvCookie    = "MANGAWATCH_COOKIE"
	EnvDatabase  = "MANGAWATCH_DATABASE"
)

type Config struct {
	UserAgent        string        `yaml:"user_agent"`
	Cookie           string        `yaml:"cookie"`
	CookieFile       string        `yaml:"cookie_file"`
	Timeout          time.Duration `yaml:"timeout"`
	Retries          int           `yaml:"retries"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass"`
	Debug            bool          `yaml:"debug"`

	Database string `yaml:"database"`
	Schedule string `yaml:"schedule"`
	Workers  int    `yaml:"workers"`

	Output       string   `yaml:"output"`
	ImageWorkers int      `yaml:"image_workers"`
	SkipBroken   bool     `yaml:"skip_broken"`
	KeepFolders  bool     `yaml:"keep_folders"`
	AllowExt     []string `yaml:"allow_ext"`

	DisabledSites []string      `yaml:"disabled_sites,omitempty"`
	Sites         []sites.Rules `yaml:"sites,omitempty"`
}

// Options carries command line values. Zero values leave the config alone.
type Options struct {
	IgnoreConfig bool
	EnvFile      string

	Debug            bool
	UserAgent        string
	Cookie           string
	CookieFile       string
	CloudflareBypass bool
	Database         string
	Schedule         string
	Workers          int
	Output           string
	ImageWorkers     int
	SkipBroken       bool
	KeepFolders      bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		Retries:      3,
		Database:     filepath.Join(Root(), "tracked.db"),
		Schedule:     "@every 6h",
		Workers:      4,
		Output:       ".",
		ImageWorkers: 5,
		AllowExt:     []string{"jpg", "jpeg", "png", "webp"},
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return c, nil
}

// LoadMerged builds the effective config: defaults, then the active profile,
// then the environment, then opts. The second result says where the file
// part came from.
func LoadMerged(opts Options) (*Config, string, error) {
	cfg := DefaultConfig()
	used := "(ignored config)"

	if !opts.IgnoreConfig {
		path, err := ActiveConfigPath()
		switch {
		case errors.Is(err, ErrNoConfig):
			used = "(default config in memory, run `mangawatch config init` to create one)"
		case err != nil:
			return nil, "", err
		default:
			if cfg, err = loadYAML(path); err != nil {
				return nil, "", fmt.Errorf("failed to load config %s: %w", path, err)
			}
			used = path
		}
	}

	if err := applyEnv(cfg, opts.EnvFile); err != nil {
		return nil, "", err
	}
	mergeOptions(cfg, opts)
	normalize(cfg)

	return cfg, used, nil
}

// applyEnv reads the environment, falling back to envFile for variables
// that are not set. A missing envFile is fine.
func applyEnv(c *Config, envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	file, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", envFile, err)
	}

	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return file[key]
	}

	if v := get(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := get(EnvCookie); v != "" {
		c.Cookie = v
	}
	if v := get(EnvDatabase); v != "" {
		c.Database = v
	}

	return nil
}

func mergeOptions(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.Schedule != "" {
		c.Schedule = o.Schedule
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.KeepFolders {
		c.KeepFolders = true
	}
}

func normalize(c *Config) {
	def := DefaultConfig()

	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Schedule == "" {
		c.Schedule = def.Schedule
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Output == "" {
		c.Output = def.Output
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = def.ImageWorkers
	}

	for i, ext := range c.AllowExt {
		c.AllowExt[i] = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	}
}

// SiteRules returns the built-in rules followed by the configured ones.
// Configured rules without allow_ext inherit the global list.
func (c *Config) SiteRules() []sites.Rules {
	rules := append(sites.Builtin(), c.Sites...)

	for i := range rules {
		if len(rules[i].Pictures.AllowExt) == 0 && len(c.AllowExt) > 0 {
			rules[i].Pictures.AllowExt = c.AllowExt
		}
	}

	return rules
}

func (c *Config) Print(w io.Writer) {
	p := func(k string, v any) { _, _ = fmt.Fprintf(w, " -%s: %v\n", k, v) }

	p("timeout", c.Timeout)
	p("retries", c.Retries)
	p("database", c.Database)
	p("schedule", c.Schedule)
	p("workers", c.Workers)
	p("output", c.Output)
	p("image_workers", c.ImageWorkers)

	if c.UserAgent != "" {
		p("user_agent", c.UserAgent)
	}
	if c.Cookie != "" {
		p("cookie", "(set)")
	}
	if c.CookieFile != "" {
		p("cookie_file", c.CookieFile)
	}
	if c.CloudflareBypass {
		p("cloudflare_bypass", true)
	}
	if c.Debug {
		p("debug", true)
	}
	if c.SkipBroken {
		p("skip_broken", true)
	}
	if c.KeepFolders {
		p("keep_folders", true)
	}
	if len(c.AllowExt) > 0 {
		p("allow_ext", strings.Join(c.AllowExt, ", "))
	}
	if len(c.DisabledSites) > 0 {
		p("disabled_sites", strings.Join(c.DisabledSites, ", "))
	}
	for _, s := range c.Sites {
		p("site", s.Name+" "+s.BaseURL)
	}
}
