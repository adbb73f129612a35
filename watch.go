package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/astei/comsentinel/comset"
	"github.com/pkg/errors"
)

type watchConfig struct {
	Source PortSource
	// StatePath is optional; empty disables the state file.
	StatePath string
	Interval  time.Duration
	Out       io.Writer
	NoColor   bool
	Logger    *Logger
}

// runWatch resumes from the state file when one exists, otherwise primes from
// the first poll, then reports every change until ctx is cancelled.
func runWatch(ctx context.Context, cfg watchConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = NoopLogger()
	}
	if cfg.Interval <= 0 {
		return errors.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	notifier := &ConsoleNotifier{Out: cfg.Out, NoColor: cfg.NoColor}

	saved, err := loadSavedState(cfg.StatePath)
	if err != nil {
		return err
	}

	var sentinel *Sentinel
	var first Event
	if saved != nil {
		sentinel = NewSentinel(WithLogger(logger), WithInitialSet(*saved))
		if first, err = sentinel.Poll(ctx, cfg.Source); err != nil {
			return err
		}
		if err = notifier.Notify(first); err != nil {
			return err
		}
	} else {
		sentinel = NewSentinel(WithLogger(logger))
		ports, err := cfg.Source.Ports(ctx)
		if err != nil {
			return err
		}
		first = sentinel.Prime(ports)
	}
	if err = saveState(cfg.StatePath, sentinel.Current()); err != nil {
		return err
	}

	if _, err = fmt.Fprintln(cfg.Out, PortListString(first)); err != nil {
		return err
	}
	logger.Info("watching ports", "interval", cfg.Interval, "ports", first.Ports)

	err = sentinel.Run(ctx, cfg.Source, cfg.Interval, func(e Event) error {
		logger.Info(e.Message(), "change", int(e.Change), "conflict", e.Conflict)
		if err := notifier.Notify(e); err != nil {
			return err
		}
		if e.Change == 0 {
			return nil
		}
		return saveState(cfg.StatePath, sentinel.Current())
	})
	if errors.Cause(err) == context.Canceled {
		logger.Info("stopped")
		return nil
	}
	return err
}

func loadSavedState(path string) (*comset.Set, error) {
	if path == "" {
		return nil, nil
	}
	set, err := LoadState(path)
	if errors.Cause(err) == ErrNoState {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func saveState(path string, set comset.Set) error {
	if path == "" {
		return nil
	}
	return SaveState(path, set)
}
