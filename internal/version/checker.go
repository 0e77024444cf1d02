// Package version gates clients on the version published to the realtime
// config channel: when the published version moves past the one a client was
// built with, the client is told to restart.
package version

import (
	"context"
	"sync"

	"github.com/hubble-app/identity-api/internal/logging"
)

// Source is the realtime config channel carrying the required version.
type Source interface {
	// Current returns the published version, or "" when none is set.
	Current(ctx context.Context) (string, error)
	// Watch invokes fn for every published change until stop is called.
	Watch(ctx context.Context, fn func(version string)) (stop func(), err error)
}

// Status is the comparison between the preset and published versions.
type Status struct {
	Required string `json:"required"`
	Current  string `json:"current"`
	Match    bool   `json:"match"`
}

// Checker tracks the published version against the preset one.
type Checker struct {
	preset string
	source Source
	logger *logging.Logger

	mu         sync.RWMutex
	current    string
	onMismatch func(current, required string)
	stop       func()
}

func NewChecker(preset string, source Source, logger *logging.Logger) *Checker {
	return &Checker{
		preset:  preset,
		source:  source,
		logger:  logger,
		current: preset,
	}
}

// OnMismatch registers the callback invoked whenever the published version
// differs from the preset. Must be called before Start.
func (c *Checker) OnMismatch(fn func(current, required string)) {
	c.mu.Lock()
	c.onMismatch = fn
	c.mu.Unlock()
}

// Start fetches the published version and subscribes to changes. A missing
// value or a source failure counts as matching: breaking every client over a
// config channel outage would be worse than a stale version.
func (c *Checker) Start(ctx context.Context) error {
	published, err := c.source.Current(ctx)
	if err != nil {
		c.logger.Warn("could not read published version, assuming preset", "error", err)
		published = c.preset
	}
	if published == "" {
		published = c.preset
	}
	c.observe(published)

	stop, err := c.source.Watch(ctx, c.observe)
	if err != nil {
		c.logger.Warn("could not watch published version", "error", err)
		return nil
	}
	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()
	return nil
}

// Stop ends the subscription started by Start.
func (c *Checker) Stop() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Stat returns the current comparison.
func (c *Checker) Stat() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Status{
		Required: c.preset,
		Current:  c.current,
		Match:    c.current == c.preset,
	}
}

func (c *Checker) observe(published string) {
	c.mu.Lock()
	c.current = published
	mismatch := published != c.preset
	fn := c.onMismatch
	c.mu.Unlock()

	if mismatch {
		c.logger.Warn("client version mismatch",
			"required", c.preset,
			"published", published,
		)
		if fn != nil {
			fn(published, c.preset)
		}
	}
}
