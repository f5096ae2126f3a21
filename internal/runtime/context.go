package runtime

import (
	"fmt"
	"io"
	"os"

	"stackit.dev/stacks/internal/config"
	"stackit.dev/stacks/internal/engine"
	"stackit.dev/stacks/internal/git"
	"stackit.dev/stacks/internal/tui"
)

// Context provides access to engine and output for commands
type Context struct {
	Engine   *engine.Engine
	Splog    *tui.Splog
	Config   *config.Config
	RepoRoot string
}

// NewContext creates a new context with the given engine
func NewContext(eng *engine.Engine, splog *tui.Splog) *Context {
	if splog == nil {
		splog = tui.NewSplog()
	}
	return &Context{
		Engine: eng,
		Splog:  splog,
		Config: eng.Config(),
	}
}

// GetContext opens the repository containing dir, loads its configuration
// and builds the engine. Console output goes to out and, when configured,
// to the rotating log file.
func GetContext(dir string, out io.Writer) (*Context, error) {
	repo, err := git.OpenRepository(dir)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	cfg, err := config.Load(repo.GitDir())
	if err != nil {
		return nil, err
	}
	if cfg.Author == config.Default().Author {
		if name, email := repo.UserIdentity(); name != "" && email != "" {
			cfg.Author = config.Identity{Name: name, Email: email}
		}
	}

	logPath := cfg.Log.File
	if logPath == "" && os.Getenv("DEBUG") != "" {
		logPath = tui.GetLogFilePath(repo.GitDir())
	}
	splog, err := tui.NewSplogWithWriter(out, tui.LogFileOptions{
		Path:       logPath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	eng := engine.New(repo, engine.Options{Config: cfg, Splog: splog})
	return &Context{
		Engine:   eng,
		Splog:    splog,
		Config:   cfg,
		RepoRoot: repo.GetRepoRoot(),
	}, nil
}

// Close releases resources held by the context
func (c *Context) Close() error {
	return c.Splog.Close()
}
