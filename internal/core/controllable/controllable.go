// Package controllable implements the parameter registry of one exposed object:
// named attributes and methods reachable by string, the write rules that turn
// raw transport values into typed values, change polling and the preset
// lifecycle.
//
// A Controllable is owned by the tick goroutine and is not safe for concurrent
// use.
package controllable

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/preset"
	"github.com/ocfkit/ocf/internal/core/tween"
	"github.com/ocfkit/ocf/internal/core/value"
)

var (
	ErrEmptyID       = errors.New("controllable id is empty")
	ErrUnknownMember = errors.New("unknown attribute or method")
)

// Schema declares what a controllable exposes. Attribute and method order is
// kept for presets and UI listings.
type Schema struct {
	ID         string
	Folder     string
	UsePresets bool
	Attributes []*binding.Attribute
	Methods    []*binding.Method
}

// Member is the result of a name lookup; exactly one field is set.
type Member struct {
	Attribute *binding.Attribute
	Method    *binding.Method
}

type Controllable struct {
	id     string
	folder string

	attrs     []*binding.Attribute
	attrIndex map[string]int
	snapshots []uint64

	methods     []*binding.Method
	methodIndex map[string]int

	enabled bool

	bus       bus.EventBus
	logger    log.Log
	scheduler *tween.Scheduler
	watcher   *preset.Watcher

	usePresets  bool
	presetRoot  string
	scene       string
	clock       func() time.Time
	store       *preset.Store
	currentAttr *binding.Attribute
}

type Option func(*Controllable)

func WithBus(b bus.EventBus) Option {
	return func(c *Controllable) { c.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(c *Controllable) { c.logger = l }
}

// WithScheduler shares the tween scheduler used for preset transitions.
func WithScheduler(s *tween.Scheduler) Option {
	return func(c *Controllable) { c.scheduler = s }
}

// WithPresetRoot sets where preset directories live and the scene name used
// when the schema has no folder.
func WithPresetRoot(root, scene string) Option {
	return func(c *Controllable) {
		c.presetRoot = root
		c.scene = scene
	}
}

// WithWatcher refreshes the preset list when files change while enabled.
func WithWatcher(w *preset.Watcher) Option {
	return func(c *Controllable) { c.watcher = w }
}

// WithClock overrides the clock naming presets saved without a name.
func WithClock(clock func() time.Time) Option {
	return func(c *Controllable) { c.clock = clock }
}

// New builds a controllable from its schema. Spaces in the id become
// underscores so the id is usable as an address segment.
func New(s Schema, opts ...Option) (*Controllable, error) {
	id := strings.ReplaceAll(strings.TrimSpace(s.ID), " ", "_")
	if id == "" {
		return nil, ErrEmptyID
	}

	c := &Controllable{
		id:          id,
		folder:      s.Folder,
		attrIndex:   make(map[string]int, len(s.Attributes)+1),
		methodIndex: make(map[string]int, len(s.Methods)+4),
		usePresets:  s.UsePresets,
		logger:      log.Nop(),
		clock:       time.Now,
		presetRoot:  "Presets",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(log.String("component", "controllable"), log.String("id", id))

	for _, a := range s.Attributes {
		if err := c.addAttribute(a); err != nil {
			return nil, err
		}
	}
	for _, m := range s.Methods {
		if err := c.addMethod(m); err != nil {
			return nil, err
		}
	}
	if c.usePresets {
		if err := c.attachPresets(); err != nil {
			return nil, err
		}
	}

	c.snapshots = make([]uint64, len(c.attrs))
	c.resetSnapshots()
	return c, nil
}

func (c *Controllable) addAttribute(a *binding.Attribute) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("controllable %q: %w", c.id, err)
	}
	if _, dup := c.attrIndex[a.Name]; dup {
		return fmt.Errorf("controllable %q: %w: attribute %q", c.id, binding.ErrDuplicateKey, a.Name)
	}
	c.attrIndex[a.Name] = len(c.attrs)
	c.attrs = append(c.attrs, a)
	return nil
}

func (c *Controllable) addMethod(m *binding.Method) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("controllable %q: %w", c.id, err)
	}
	if _, dup := c.methodIndex[m.Name]; dup {
		return fmt.Errorf("controllable %q: %w: method %q", c.id, binding.ErrDuplicateKey, m.Name)
	}
	c.methodIndex[m.Name] = len(c.methods)
	c.methods = append(c.methods, m)
	return nil
}

func (c *Controllable) ID() string { return c.id }

func (c *Controllable) Folder() string { return c.folder }

func (c *Controllable) Enabled() bool { return c.enabled }

func (c *Controllable) UsesPresets() bool { return c.usePresets }

// Attributes returns the attributes in declaration order.
func (c *Controllable) Attributes() []*binding.Attribute {
	return append([]*binding.Attribute(nil), c.attrs...)
}

// Methods returns the methods in declaration order.
func (c *Controllable) Methods() []*binding.Method {
	return append([]*binding.Method(nil), c.methods...)
}

func (c *Controllable) Attribute(name string) (*binding.Attribute, bool) {
	i, ok := c.attrIndex[name]
	if !ok {
		return nil, false
	}
	return c.attrs[i], true
}

func (c *Controllable) Method(name string) (*binding.Method, bool) {
	i, ok := c.methodIndex[name]
	if !ok {
		return nil, false
	}
	return c.methods[i], true
}

// PresetAttributes returns the attributes persisted in presets.
func (c *Controllable) PresetAttributes() []*binding.Attribute {
	out := make([]*binding.Attribute, 0, len(c.attrs))
	for _, a := range c.attrs {
		if a.IncludeInPresets {
			out = append(out, a)
		}
	}
	return out
}

// Resolve looks a member up by name. Attributes shadow methods.
func (c *Controllable) Resolve(name string) (Member, bool) {
	if a, ok := c.Attribute(name); ok {
		return Member{Attribute: a}, true
	}
	if m, ok := c.Method(name); ok {
		return Member{Method: m}, true
	}
	return Member{}, false
}

// Dispatch applies raw to the named attribute or invokes the named method.
// Writes to read-only attributes are ignored without error.
func (c *Controllable) Dispatch(name string, raw []value.Value) error {
	m, ok := c.Resolve(name)
	if !ok {
		c.logger.Warn("Routing miss", log.String("member", name), log.Int("values", len(raw)))
		return fmt.Errorf("%w: %s/%s", ErrUnknownMember, c.id, name)
	}
	if m.Attribute != nil {
		if m.Attribute.Interactible {
			c.Write(m.Attribute, raw)
		}
		return nil
	}
	m.Method.Call(raw)
	return nil
}

// Write applies raw to a through the write rules, pushes the result to the
// mirrored target and publishes EventUIValueChanged. Values that do not fit
// the attribute's shape are ignored. Preset loads and tweens write through
// here, so read-only attributes are restored too.
func (c *Controllable) Write(a *binding.Attribute, raw []value.Value) {
	v, ok := convert(a, raw)
	if !ok {
		c.logger.Debug("Ignored write",
			log.String("attribute", a.Name),
			log.String("kind", a.Kind.String()),
			log.Int("values", len(raw)))
		return
	}

	a.Local.Set(v)
	if a.Mirrored() {
		a.Mirror().Push()
	}
	c.publish(EventUIValueChanged, a.Name)
}

// convert implements the write rules: scalars take the first value, compound
// kinds take a value of their own shape, a parsable string or one scalar per
// component.
func convert(a *binding.Attribute, raw []value.Value) (value.Value, bool) {
	if len(raw) == 0 {
		return value.Value{}, false
	}
	k := a.Kind
	first := raw[0]

	if len(a.Options) > 0 && k == value.KindInt && first.Kind() == value.KindString {
		if i := value.EnumIndex(a.Options, first.Text()); i >= 0 {
			return value.Int(i), true
		}
	}

	if !k.Compound() {
		return value.Coerce(first, k), true
	}

	if len(raw) == 1 {
		if first.Kind() == value.KindString || (first.Kind().Compound() && first.Kind().Arity() == k.Arity()) {
			return value.Coerce(first, k), true
		}
		return value.Value{}, false
	}

	switch n := k.Arity(); {
	case len(raw) >= n:
		return value.FromComponents(k, components(raw[:n])), true
	case k == value.KindColor && len(raw) == 3:
		c := components(raw)
		return value.Color(c[0], c[1], c[2], 1), true
	}
	return value.Value{}, false
}

func components(raw []value.Value) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v.Float()
	}
	return out
}
