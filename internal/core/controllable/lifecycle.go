package controllable

import (
	"github.com/ocfkit/ocf/internal/core/observability/log"
)

// Registrar is the directory a controllable joins while enabled.
type Registrar interface {
	Register(c *Controllable) error
	Unregister(id string)
}

// Enable registers the controllable and, when it uses presets, reads its
// preset list and reloads the last used preset. A rejected registration
// leaves the controllable disabled.
func (c *Controllable) Enable(r Registrar) error {
	if c.enabled {
		return nil
	}
	if err := r.Register(c); err != nil {
		return err
	}
	c.enabled = true
	c.resetSnapshots()
	c.logger.Debug("Controllable enabled")

	if !c.usePresets {
		return nil
	}
	list, err := c.RefreshPresets()
	if err == nil && c.watcher != nil {
		err := c.watcher.Watch(c.store.Dir(), func() {
			if c.enabled {
				_, _ = c.RefreshPresets()
			}
		})
		if err != nil {
			c.logger.Debug("Preset directory not watched", log.String("dir", c.store.Dir()), log.Error(err))
		}
	}
	if len(list) > 0 {
		c.store.SetCurrent(list[0])
		if _, err := c.store.LoadLastUsed(); err != nil {
			c.logger.Warn("Failed to restore last used preset", log.Error(err))
		}
	}
	return nil
}

// Disable records the current preset, stops running tweens and leaves the
// directory.
func (c *Controllable) Disable(r Registrar) {
	if !c.enabled {
		return
	}
	if c.usePresets {
		if err := c.store.WriteMarker(); err != nil {
			c.logger.Warn("Failed to record last used preset", log.Error(err))
		}
		if c.watcher != nil {
			c.watcher.Unwatch(c.store.Dir())
		}
	}
	if c.scheduler != nil {
		c.scheduler.Cancel(c.id)
	}
	r.Unregister(c.id)
	c.enabled = false
	c.logger.Debug("Controllable disabled")
}
