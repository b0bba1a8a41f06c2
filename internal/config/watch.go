package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchStudios loads studios.yaml, applies it through onUpdate, and keeps
// polling the file's mtime for changes. The initial load and apply are
// synchronous so startup fails fast on a broken catalog; later reload
// failures are logged and the last good catalog stays in effect.
func WatchStudios(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func(*StudiosConfig) error) error {
	if path == "" {
		path = "configs/studios.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadStudiosConfig(path)
	if err != nil {
		return fmt.Errorf("load studios config: %w", err)
	}
	if err := onUpdate(cfg); err != nil {
		return fmt.Errorf("apply studios config: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				lastMod = reloadIfChanged(path, lastMod, logger, onUpdate)
			}
		}
	}()

	return nil
}

// reloadIfChanged applies the catalog when the file's mtime moved forward.
// It returns the mtime to compare against on the next tick; a failed load or
// apply keeps the old one so the reload is retried.
func reloadIfChanged(path string, lastMod time.Time, logger *zerolog.Logger, onUpdate func(*StudiosConfig) error) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("studios config stat failed")
		return lastMod
	}
	if !info.ModTime().After(lastMod) {
		return lastMod
	}

	cfg, err := LoadStudiosConfig(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("studios config reload failed, keeping previous catalog")
		return lastMod
	}
	if err := onUpdate(cfg); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("studios config apply failed, keeping previous catalog")
		return lastMod
	}

	logger.Info().Str("catalog", cfg.String()).Msg("studios config reloaded")
	return info.ModTime()
}
