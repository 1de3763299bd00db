package controllable

import (
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/observability/log"
)

// Event types published on the bus. Every event carries a Change.
const (
	// EventUIValueChanged fires after a write that came from outside: a dispatch,
	// a preset load or a tween step.
	EventUIValueChanged = "controllable.ui_value_changed"
	// EventScriptValueChanged fires when a mirrored target drifted and the local
	// copy was refreshed from it.
	EventScriptValueChanged = "controllable.script_value_changed"
	// EventValueChanged fires whenever observers should re-read an attribute.
	EventValueChanged = "controllable.value_changed"
	// EventPresetLoaded fires once a preset load, tweens included, completed.
	EventPresetLoaded = "controllable.preset_loaded"
)

// Change names the attribute an event is about. Observers read the value
// themselves.
type Change struct {
	Controllable string
	Attribute    string
}

func (c *Controllable) publish(eventType, attribute string) {
	if c.bus == nil {
		return
	}
	ev := bus.NewEvent(eventType, c.id, Change{Controllable: c.id, Attribute: attribute}, nil)
	if err := c.bus.Publish(ev); err != nil {
		c.logger.Warn("Event handler failed",
			log.String("event", eventType),
			log.String("attribute", attribute),
			log.Error(err))
	}
}
