package controllable

import (
	"github.com/cespare/xxhash/v2"
)

// Poll detects attributes whose value changed since the last poll. A mirrored
// attribute is compared on its target: on drift the local copy is refreshed
// and EventScriptValueChanged fires. Every change then fires
// EventValueChanged. Disabled controllables are skipped.
func (c *Controllable) Poll() int {
	if !c.enabled {
		return 0
	}
	changed := 0
	for i, a := range c.attrs {
		h := fingerprint(c.observed(i))
		if h == c.snapshots[i] {
			continue
		}
		c.snapshots[i] = h
		changed++

		if a.Mirrored() {
			a.Mirror().Pull()
			c.publish(EventScriptValueChanged, a.Name)
		}
		c.publish(EventValueChanged, a.Name)
	}
	return changed
}

// observed returns the canonical string of the value change detection looks at.
func (c *Controllable) observed(i int) string {
	a := c.attrs[i]
	if a.Mirrored() {
		return a.Target.Get().String()
	}
	return a.Local.Get().String()
}

func (c *Controllable) resetSnapshots() {
	if len(c.snapshots) != len(c.attrs) {
		c.snapshots = make([]uint64, len(c.attrs))
	}
	for i := range c.attrs {
		c.snapshots[i] = fingerprint(c.observed(i))
	}
}

func fingerprint(s string) uint64 {
	return xxhash.Sum64String(s)
}
