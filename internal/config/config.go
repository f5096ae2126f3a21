package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside <gitdir>/stacks
const FileName = "config.yml"

// Identity is the author used for commits the tool creates
type Identity struct {
	Name  string `yaml:"name" validate:"required"`
	Email string `yaml:"email" validate:"required,email"`
}

// LogConfig controls the rotating log file
type LogConfig struct {
	// File is the log path; empty disables file logging
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=1"`
}

// Config is the project configuration
type Config struct {
	DefaultRemote   string    `yaml:"default_remote" validate:"required,excludesall=/"`
	WorkspaceBranch string    `yaml:"workspace_branch" validate:"required,startswith=refs/heads/"`
	AllowRebasing   bool      `yaml:"allow_rebasing"`
	UndoDepth       int       `yaml:"undo_depth" validate:"gte=1,lte=100"`
	Author          Identity  `yaml:"author"`
	Log             LogConfig `yaml:"log"`
}

var validate = validator.New()

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		DefaultRemote:   "origin",
		WorkspaceBranch: "refs/heads/stacks/workspace",
		AllowRebasing:   true,
		UndoDepth:       10,
		Author: Identity{
			Name:  "stacks",
			Email: "stacks@localhost.localdomain",
		},
		Log: LogConfig{
			MaxSizeMB:  1,
			MaxBackups: 2,
			MaxAgeDays: 30,
		},
	}
}

// Path returns the config file location for a git directory
func Path(gitDir string) string {
	return filepath.Join(gitDir, "stacks", FileName)
}

// Load reads the config for a git directory, applies STACKS_* environment
// overrides and validates the result. A missing file, or an empty gitDir for
// repositories without one, yields the defaults.
func Load(gitDir string) (*Config, error) {
	cfg := Default()

	if gitDir != "" {
		data, err := os.ReadFile(Path(gitDir))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save validates and writes the config for a git directory
func Save(gitDir string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := Path(gitDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the struct constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("STACKS_REMOTE"); v != "" {
		cfg.DefaultRemote = v
	}
	if v := os.Getenv("STACKS_WORKSPACE_BRANCH"); v != "" {
		cfg.WorkspaceBranch = v
	}
	if v := os.Getenv("STACKS_ALLOW_REBASING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid STACKS_ALLOW_REBASING: %w", err)
		}
		cfg.AllowRebasing = b
	}
	if v := os.Getenv("STACKS_AUTHOR_NAME"); v != "" {
		cfg.Author.Name = v
	}
	if v := os.Getenv("STACKS_AUTHOR_EMAIL"); v != "" {
		cfg.Author.Email = v
	}
	if v := os.Getenv("STACKS_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"STACKS_UNDO_DEPTH", &cfg.UndoDepth},
		{"STACKS_LOG_MAX_SIZE", &cfg.Log.MaxSizeMB},
		{"STACKS_LOG_MAX_BACKUPS", &cfg.Log.MaxBackups},
		{"STACKS_LOG_MAX_AGE", &cfg.Log.MaxAgeDays},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", i.env, err)
		}
		*i.dst = n
	}
	return nil
}
