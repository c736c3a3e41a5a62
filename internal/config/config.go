// Package config resolves the service configuration from defaults, an
// optional JSON config file, and environment variables, in that order
// (highest wins).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"studentdir/internal/student"
)

// Config file errors.
var (
	ErrConfigFileRead = errors.New("cannot read config file")
	ErrConfigInvalid  = errors.New("invalid config file")
)

// ConfigFileName is the default config file name, looked up in the working
// directory. The file may contain comments and trailing commas (HuJSON).
const ConfigFileName = "studentdir.json"

// Defaults.
const (
	DefaultDataFile  = "./data/students.json"
	DefaultBackupDir = "./data/backup"
	DefaultPort      = 4000

	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// DefaultCORSOrigins are the origins allowed when none are configured.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

// Config holds all configuration options.
type Config struct {
	// From config file / environment (serialized)
	DataFile    string   `json:"data_file"`
	BackupDir   string   `json:"backup_dir"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"`

	MaxNameLength   int `json:"max_name_length"`
	MinAge          int `json:"min_age"`
	MaxAge          int `json:"max_age"`
	MaxCourseLength int `json:"max_course_length"`

	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`

	// Source tracks which config file was loaded, for diagnostics.
	Source string `json:"-"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		DataFile:        DefaultDataFile,
		BackupDir:       DefaultBackupDir,
		Port:            DefaultPort,
		CORSOrigins:     append([]string(nil), DefaultCORSOrigins...),
		MaxNameLength:   student.DefaultMaxNameLength,
		MinAge:          student.DefaultMinAge,
		MaxAge:          student.DefaultMaxAge,
		MaxCourseLength: student.DefaultMaxCourseLength,
		DefaultLimit:    DefaultPageLimit,
		MaxLimit:        MaxPageLimit,
	}
}

// Bounds returns the validation limits carried by the config.
func (c Config) Bounds() student.Bounds {
	return student.Bounds{
		MaxNameLength:   c.MaxNameLength,
		MinAge:          c.MinAge,
		MaxAge:          c.MaxAge,
		MaxCourseLength: c.MaxCourseLength,
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	// ConfigPath is an explicit config file path. Empty means look for
	// ConfigFileName in the working directory; a missing default file is
	// not an error, a missing explicit one is.
	ConfigPath string

	// Env is the environment snapshot.
	Env map[string]string
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Config file (ConfigFileName, or input.ConfigPath if set)
// 3. Environment variables.
func Load(input LoadInput) (Config, error) {
	cfg := Default()

	fileCfg, source, fileErr := loadFile(input.ConfigPath)
	if fileErr != nil {
		return Config{}, fileErr
	}

	cfg = merge(cfg, fileCfg)
	cfg.Source = source

	envCfg, envErr := fromEnv(input.Env)
	if envErr != nil {
		return Config{}, envErr
	}

	cfg = merge(cfg, envCfg)

	return cfg, nil
}

// loadFile reads and parses a config file. Returns a zero Config when no
// file applies.
func loadFile(explicitPath string) (Config, string, error) {
	path := explicitPath
	required := explicitPath != ""

	if path == "" {
		path = ConfigFileName
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) && !required {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, readErr)
	}

	standardized, huErr := hujson.Standardize(data)
	if huErr != nil {
		return Config{}, "", fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, huErr)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, "", fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, unmarshalErr)
	}

	return cfg, path, nil
}

// Environment variable names. The database and server variables match the
// names the original deployment used; validation and pagination bounds get
// prefixed names.
const (
	EnvDataFile    = "DB_FILE_PATH"
	EnvBackupDir   = "DB_BACKUP_PATH"
	EnvPort        = "PORT"
	EnvCORSOrigins = "CORS_ORIGINS"

	EnvMaxNameLength   = "STUDENTDIR_MAX_NAME_LEN"
	EnvMinAge          = "STUDENTDIR_MIN_AGE"
	EnvMaxAge          = "STUDENTDIR_MAX_AGE"
	EnvMaxCourseLength = "STUDENTDIR_MAX_COURSE_LEN"
	EnvDefaultLimit    = "STUDENTDIR_DEFAULT_LIMIT"
	EnvMaxLimit        = "STUDENTDIR_MAX_LIMIT"
)

// fromEnv builds a partial Config from environment variables. Invalid
// numeric values are configuration errors, not silently ignored.
func fromEnv(env map[string]string) (Config, error) {
	var cfg Config

	cfg.DataFile = env[EnvDataFile]
	cfg.BackupDir = env[EnvBackupDir]

	if origins := env[EnvCORSOrigins]; origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	intVars := []struct {
		name string
		dest *int
	}{
		{EnvPort, &cfg.Port},
		{EnvMaxNameLength, &cfg.MaxNameLength},
		{EnvMinAge, &cfg.MinAge},
		{EnvMaxAge, &cfg.MaxAge},
		{EnvMaxCourseLength, &cfg.MaxCourseLength},
		{EnvDefaultLimit, &cfg.DefaultLimit},
		{EnvMaxLimit, &cfg.MaxLimit},
	}

	for _, v := range intVars {
		raw := env[v.name]
		if raw == "" {
			continue
		}

		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %q", v.name, raw)
		}

		*v.dest = parsed
	}

	return cfg, nil
}

// merge overlays non-zero fields of overlay onto base.
func merge(base, overlay Config) Config {
	if overlay.DataFile != "" {
		base.DataFile = overlay.DataFile
	}

	if overlay.BackupDir != "" {
		base.BackupDir = overlay.BackupDir
	}

	if overlay.Port != 0 {
		base.Port = overlay.Port
	}

	if len(overlay.CORSOrigins) > 0 {
		base.CORSOrigins = overlay.CORSOrigins
	}

	if overlay.MaxNameLength != 0 {
		base.MaxNameLength = overlay.MaxNameLength
	}

	if overlay.MinAge != 0 {
		base.MinAge = overlay.MinAge
	}

	if overlay.MaxAge != 0 {
		base.MaxAge = overlay.MaxAge
	}

	if overlay.MaxCourseLength != 0 {
		base.MaxCourseLength = overlay.MaxCourseLength
	}

	if overlay.DefaultLimit != 0 {
		base.DefaultLimit = overlay.DefaultLimit
	}

	if overlay.MaxLimit != 0 {
		base.MaxLimit = overlay.MaxLimit
	}

	return base
}
