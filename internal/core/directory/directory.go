// Package directory keeps the enabled controllables by id and routes
// addressed messages to them.
package directory

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/value"
)

// Event types published on the bus.
const (
	// EventControllableAdded carries the registered *controllable.Controllable.
	EventControllableAdded = "directory.controllable_added"
	// EventControllableRemoved carries the removed *controllable.Controllable.
	EventControllableRemoved = "directory.controllable_removed"
	// EventUnrouted carries a Message whose root belongs to another consumer.
	EventUnrouted = "directory.unrouted"
)

// Message is an addressed list of values.
type Message struct {
	Address string
	Values  []value.Value
}

// Directory maps ids to controllables in registration order. It is owned by
// the tick goroutine.
type Directory struct {
	root   string
	items  map[string]*controllable.Controllable
	order  []string
	bus    bus.EventBus
	logger log.Log
}

type Option func(*Directory)

// WithRoot sets the address segment every routed message must start with.
// An empty root routes /<id>/<member> directly.
func WithRoot(root string) Option {
	return func(d *Directory) { d.root = strings.Trim(root, "/") }
}

func WithBus(b bus.EventBus) Option {
	return func(d *Directory) { d.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(d *Directory) { d.logger = l }
}

func New(opts ...Option) *Directory {
	d := &Directory{
		items:  make(map[string]*controllable.Controllable),
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(log.String("component", "directory"))
	return d
}

func (d *Directory) Root() string { return d.root }

// Register adds c. A second controllable with the same id is rejected and
// the first one kept.
func (d *Directory) Register(c *controllable.Controllable) error {
	if _, exists := d.items[c.ID()]; exists {
		d.logger.Warn("Controllable already registered", log.String("id", c.ID()))
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID())
	}
	d.items[c.ID()] = c
	d.order = append(d.order, c.ID())
	d.logger.Debug("Controllable registered", log.String("id", c.ID()))
	d.publish(EventControllableAdded, c.ID(), c)
	return nil
}

func (d *Directory) Unregister(id string) {
	c, ok := d.items[id]
	if !ok {
		return
	}
	delete(d.items, id)
	d.order = slices.DeleteFunc(d.order, func(s string) bool { return s == id })
	d.logger.Debug("Controllable unregistered", log.String("id", id))
	d.publish(EventControllableRemoved, id, c)
}

func (d *Directory) Get(id string) (*controllable.Controllable, bool) {
	c, ok := d.items[id]
	return c, ok
}

// IDs returns the registered ids in registration order.
func (d *Directory) IDs() []string {
	return slices.Clone(d.order)
}

// All returns the registered controllables in registration order.
func (d *Directory) All() []*controllable.Controllable {
	out := make([]*controllable.Controllable, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.items[id])
	}
	return out
}

func (d *Directory) Len() int { return len(d.items) }

// Route dispatches an address of the form /<root>/<id>/<member>. Segments
// after the member are ignored.
func (d *Directory) Route(address string, raw []value.Value) error {
	segments := strings.Split(strings.TrimPrefix(address, "/"), "/")

	if d.root != "" {
		if segments[0] != d.root {
			d.logger.Debug("Message for another root", log.String("address", address))
			d.publish(EventUnrouted, address, Message{Address: address, Values: raw})
			return fmt.Errorf("%w: %s", ErrRootMismatch, address)
		}
		segments = segments[1:]
	}

	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		d.logger.Debug("Ignored short address", log.String("address", address))
		return fmt.Errorf("%w: %s", ErrShortAddress, address)
	}
	return d.Dispatch(segments[0], segments[1], raw)
}

// Dispatch hands raw to a member of the target controllable.
func (d *Directory) Dispatch(target, member string, raw []value.Value) error {
	c, ok := d.items[target]
	if !ok {
		d.logger.Warn("Routing miss",
			log.String("target", target),
			log.String("member", member))
		return fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return c.Dispatch(member, raw)
}

// Poll runs change detection on every registered controllable and returns
// how many attributes changed.
func (d *Directory) Poll() int {
	changed := 0
	for _, id := range d.order {
		changed += d.items[id].Poll()
	}
	return changed
}

// SaveAll saves the current preset of every controllable using presets.
func (d *Directory) SaveAll() error {
	return d.each(func(c *controllable.Controllable) error { return c.SavePreset() })
}

func (d *Directory) SaveAsAll() error {
	return d.each(func(c *controllable.Controllable) error {
		_, err := c.SavePresetAs()
		return err
	})
}

// LoadAll reloads the current preset of every controllable using presets.
func (d *Directory) LoadAll() error {
	return d.each(func(c *controllable.Controllable) error { return c.LoadPreset() })
}

func (d *Directory) LoadLastUsedAll() error {
	return d.each(func(c *controllable.Controllable) error { return c.LoadLastUsedPreset() })
}

func (d *Directory) RefreshAll() error {
	return d.each(func(c *controllable.Controllable) error {
		_, err := c.RefreshPresets()
		return err
	})
}

func (d *Directory) each(fn func(*controllable.Controllable) error) error {
	var errs []error
	for _, c := range d.All() {
		if !c.UsesPresets() {
			continue
		}
		if err := fn(c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.ID(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Directory) publish(eventType, source string, data any) {
	if d.bus == nil {
		return
	}
	if err := d.bus.Publish(bus.NewEvent(eventType, source, data, nil)); err != nil {
		d.logger.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}
