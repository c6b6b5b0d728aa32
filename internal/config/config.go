package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/logging"
	"fuzzysheets/internal/service"
)

type Config struct {
	Port        string   `yaml:"port"`
	UploadDir   string   `yaml:"upload_dir"`
	MaxUploadMB int      `yaml:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" or "text"
	LogOutput string `yaml:"log_output"` // "stdout", "stderr" or a file path

	// Matching engine
	Match service.Options `yaml:"match"`
	// MatchTimeout bounds one matching request; 0 disables it.
	MatchTimeout time.Duration `yaml:"match_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:         "8001",
		UploadDir:    "./uploads",
		MaxUploadMB:  100,
		CORSOrigins:  []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		LogLevel:     "info",
		LogFormat:    "text",
		LogOutput:    "stderr",
		Match:        service.DefaultOptions(),
		MatchTimeout: 0,
	}
}

// Load reads the configuration from the environment on top of the defaults.
func Load() (*Config, error) {
	cfg := Default()
	var problems []string
	env := envReader{problems: &problems}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadMB = env.int("MAX_UPLOAD_MB", cfg.MaxUploadMB)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogOutput = getEnv("LOG_OUTPUT", cfg.LogOutput)

	m := &cfg.Match
	m.ColumnNameWeight = env.float("MATCH_COLUMN_NAME_WEIGHT", m.ColumnNameWeight)
	m.MatchThreshold = env.float("MATCH_THRESHOLD", m.MatchThreshold)
	m.DuplicateThreshold = env.float("DUPLICATE_THRESHOLD", m.DuplicateThreshold)
	m.OffsetRatioMin = env.float("OFFSET_RATIO_MIN", m.OffsetRatioMin)
	m.OffsetScoreMin = env.float("OFFSET_SCORE_MIN", m.OffsetScoreMin)
	m.SubstitutionCost = env.int("SUBSTITUTION_COST", m.SubstitutionCost)
	m.NGramSize = env.int("NGRAM_SIZE", m.NGramSize)
	m.TypeConstrained = env.bool("TYPE_CONSTRAINED", m.TypeConstrained)
	m.Workers = env.int("MATCH_WORKERS", m.Workers)
	cfg.MatchTimeout = env.duration("MATCH_TIMEOUT", cfg.MatchTimeout)

	if len(problems) > 0 {
		return nil, errs.NewValidation("config.Load", strings.Join(problems, "; "), nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the environment configuration and overlays the YAML file
// at path. Keys present in the file win.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.NewValidation("config.LoadFile", "invalid yaml in "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("port must be a number in 1..65535, got %q", c.Port))
	}
	if c.MaxUploadMB < 1 {
		problems = append(problems, fmt.Sprintf("max_upload_mb must be positive, got %d", c.MaxUploadMB))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level: %v", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("log_format must be json or text, got %q", c.LogFormat))
	}
	if c.MatchTimeout < 0 {
		problems = append(problems, fmt.Sprintf("match_timeout must not be negative, got %s", c.MatchTimeout))
	}
	if err := c.Match.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errs.NewValidation("config.Validate", "configuration validation failed: "+strings.Join(problems, "; "), nil)
	}
	return nil
}

// LogConfig converts the logging settings.
func (c *Config) LogConfig() logging.LogConfig {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = logging.DefaultLogConfig().Level
	}
	return logging.LogConfig{Level: level, Format: c.LogFormat, Output: c.LogOutput}
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envReader parses typed variables and records malformed values.
type envReader struct {
	problems *[]string
}

func (r envReader) fail(key, value string, err error) {
	*r.problems = append(*r.problems, fmt.Sprintf("%s=%q: %v", key, value, err))
}

func (r envReader) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r envReader) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r envReader) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}
