package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateTracking(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	if strings.TrimSpace(c.Render.Command) == "" {
		return errors.New("render.command must be set")
	}
	joined := strings.Join(c.Render.Args, " ")
	for _, token := range []string{"{script}", "{node}"} {
		if !strings.Contains(joined, token) {
			return fmt.Errorf("render.args must reference %s", token)
		}
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.FPS <= 0 {
		return errors.New("transcode.fps must be positive")
	}
	if len(c.Transcode.IntermediateExt) < 2 {
		return errors.New("transcode.intermediate_ext must be an extension such as .png")
	}
	return nil
}

func (c *Config) validateTracking() error {
	switch c.Tracking.Backend {
	case TrackingSQLite:
		if strings.TrimSpace(c.Tracking.Path) == "" {
			return errors.New("tracking.path must be set when tracking.backend is sqlite")
		}
	case TrackingPostgres:
		if strings.TrimSpace(c.Tracking.DSN) == "" {
			return errors.New("tracking.dsn must be set when tracking.backend is postgres (or set BLAST_TRACKING_DSN)")
		}
	case TrackingNone:
	default:
		return fmt.Errorf("tracking.backend: unsupported value %q (want sqlite, postgres or none)", c.Tracking.Backend)
	}
	return nil
}
