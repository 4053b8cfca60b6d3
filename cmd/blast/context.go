package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"blast/internal/config"
	"blast/internal/logging"
	"blast/internal/services"
	"blast/internal/shotdata"
	"blast/internal/tracking"
	"blast/internal/tracking/pgstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrResource, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// backend is the opened tracking provider. History is nil for backends that
// only serve lookups.
type backend struct {
	source  shotdata.Source
	history *tracking.Store
	close   func() error
}

func (b backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func (c *commandContext) openBackend(ctx context.Context) (backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return backend{}, err
	}
	switch cfg.Tracking.Backend {
	case config.TrackingSQLite:
		store, err := tracking.Open(cfg)
		if err != nil {
			return backend{}, services.Wrap(services.ErrResource, "cli", "open tracking", cfg.Tracking.Path, err)
		}
		return backend{source: store.Source(), history: store, close: store.Close}, nil
	case config.TrackingPostgres:
		store, err := pgstore.Connect(ctx, cfg.Tracking.DSN)
		if err != nil {
			return backend{}, services.Wrap(services.ErrResource, "cli", "open tracking", "postgres", err)
		}
		return backend{source: store.Source(), close: store.Close}, nil
	default:
		return backend{}, nil
	}
}

// openStore opens the local SQLite store regardless of the lookup backend.
func (c *commandContext) openStore() (*tracking.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Tracking.Backend != config.TrackingSQLite {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "open store",
			fmt.Sprintf("tracking backend is %q; this command manages the sqlite store", cfg.Tracking.Backend), nil)
	}
	store, err := tracking.Open(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "cli", "open store", cfg.Tracking.Path, err)
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
