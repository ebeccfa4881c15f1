package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// CGCookie base URLs and paths
const (
	CGCookieBaseUrl   = "https://cgcookie.com"
	CGCookieLoginPath = "/customers/sign_in"
)

// Page selectors the scraper depends on. Kept in one place because they are
// the part of the tool that breaks when the site markup drifts.
const (
	SelectorSignedInMarker = "li.nav-item.avatar-nav-item"
	SelectorLoginEmail     = "#customer_email"
	SelectorLoginPassword  = "#customer_password"
	SelectorLoginSubmit    = `input[type="submit"]`
	SelectorCourseList     = "#course-list-accordion"
	SelectorWistiaEmbed    = ".wistia_embed"
)

// DefaultHeaders HTTP request headers
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
	"Cache-Control":   "no-cache",
}

type Timeouts struct {
	Login       time.Duration `mapstructure:"login"`
	ManualLogin time.Duration `mapstructure:"manual_login"`
	Scrape      time.Duration `mapstructure:"scrape"`
	CourseFiles time.Duration `mapstructure:"course_files"`
	Manual      time.Duration `mapstructure:"manual"`
}

type Config struct {
	Email    string   `mapstructure:"email"`
	Password string   `mapstructure:"password"`
	Courses  []string `mapstructure:"courses"`

	SaveRoot     string `mapstructure:"save_root"`
	DownloadsDir string `mapstructure:"downloads_dir"`
	ProfileDir   string `mapstructure:"profile_dir"`

	PrefixFilenames bool `mapstructure:"prefix_filenames"`
	SkipIfExists    bool `mapstructure:"skip_if_exists"`
	Headless        bool `mapstructure:"headless"`
	ManualLogin     bool `mapstructure:"manual_login"`

	ChunkSize int    `mapstructure:"chunk_size"`
	LogLevel  string `mapstructure:"log_level"`

	Timeouts Timeouts `mapstructure:"timeouts"`
}

// Load reads config.yml (current dir or ./config), layered with CGC_-prefixed
// environment variables. EMAIL and PASSWORD from the environment win so that
// credentials can stay in .env.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CGC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("save_root", "courses")
	viper.SetDefault("profile_dir", "browser_profile")
	viper.SetDefault("prefix_filenames", true)
	viper.SetDefault("skip_if_exists", true)
	viper.SetDefault("headless", false)
	viper.SetDefault("chunk_size", 1024)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("timeouts.login", 10*time.Second)
	viper.SetDefault("timeouts.manual_login", 300*time.Second)
	viper.SetDefault("timeouts.scrape", 30*time.Second)
	viper.SetDefault("timeouts.course_files", 300*time.Second)
	viper.SetDefault("timeouts.manual", 120*time.Second)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if email := os.Getenv("EMAIL"); email != "" {
		cfg.Email = email
	}
	if password := os.Getenv("PASSWORD"); password != "" {
		cfg.Password = password
	}

	if cfg.DownloadsDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DownloadsDir = filepath.Join(home, "Downloads")
		}
	}
	cfg.SaveRoot = expandHome(cfg.SaveRoot)
	cfg.DownloadsDir = expandHome(cfg.DownloadsDir)

	return &cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if len(c.Courses) == 0 {
		return fmt.Errorf("no course URLs configured")
	}
	if !c.ManualLogin && (c.Email == "" || c.Password == "") {
		return fmt.Errorf("email and password are required unless manual_login is set")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	return nil
}

// NewLogger builds the run logger. Components receive it by value; there is
// no package-level logger to mutate.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger().Level(lvl)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
