package controllable

import (
	"math"
	"time"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/preset"
	"github.com/ocfkit/ocf/internal/core/value"
)

// CurrentPresetAttribute is the attribute added to controllables using
// presets. Its options are the preset file names.
const CurrentPresetAttribute = "currentPreset"

// Preset method names added to controllables using presets.
const (
	MethodSave         = "Save"
	MethodSaveAs       = "SaveAs"
	MethodLoad         = "Load"
	MethodLoadWithName = "LoadWithName"
)

func (c *Controllable) attachPresets() error {
	dir := preset.Dir(c.presetRoot, c.folder, c.scene, c.id)
	opts := []preset.Option{
		preset.WithLogger(c.logger),
		preset.WithClock(c.clock),
		preset.WithOnLoaded(c.presetLoaded),
		preset.WithOnListChanged(c.presetListChanged),
	}
	if c.scheduler != nil {
		opts = append(opts, preset.WithScheduler(c.scheduler))
	}
	c.store = preset.NewStore(dir, c, opts...)

	current := binding.NewAttribute(CurrentPresetAttribute, value.KindString, binding.Slot{
		Get: func() value.Value { return value.String(c.store.Current()) },
		Set: func(v value.Value) { c.store.SetCurrent(v.Text()) },
	})
	current.IncludeInPresets = false
	if err := c.addAttribute(current); err != nil {
		return err
	}
	c.currentAttr = current

	builtins := []*binding.Method{
		binding.NewMethod(MethodSave, func([]value.Value) { _ = c.SavePreset() }),
		binding.NewMethod(MethodSaveAs, func([]value.Value) { _, _ = c.SavePresetAs() }),
		binding.NewMethod(MethodLoad, func([]value.Value) { _ = c.LoadPreset() }),
		binding.NewMethod(MethodLoadWithName, func(args []value.Value) {
			_ = c.LoadPresetWithName(args[0].Text(), seconds(args[1].Float()), args[2].Text())
		}, value.KindString, value.KindFloat, value.KindString),
	}
	for _, m := range builtins {
		if _, taken := c.methodIndex[m.Name]; taken {
			continue
		}
		if err := c.addMethod(m); err != nil {
			return err
		}
	}
	return nil
}

// Presets returns the preset store, nil when the controllable does not use
// presets.
func (c *Controllable) Presets() *preset.Store {
	return c.store
}

// SavePreset overwrites the current preset, or saves a new timestamped one
// when none is selected.
func (c *Controllable) SavePreset() error {
	if c.store == nil {
		return nil
	}
	if c.store.Current() == "" {
		_, err := c.SavePresetAs()
		return err
	}
	if err := c.store.Save(c.store.Current()); err != nil {
		c.logger.Error("Failed to save preset", log.String("preset", c.store.Current()), log.Error(err))
		return err
	}
	return nil
}

func (c *Controllable) SavePresetAs() (string, error) {
	if c.store == nil {
		return "", nil
	}
	name, err := c.store.SaveAs()
	if err != nil {
		c.logger.Error("Failed to save preset", log.String("preset", name), log.Error(err))
	}
	return name, err
}

// LoadPreset reloads the current preset without a transition.
func (c *Controllable) LoadPreset() error {
	if c.store == nil {
		return nil
	}
	return c.store.Load(c.store.Current(), 0, "")
}

func (c *Controllable) LoadPresetWithName(name string, duration time.Duration, style string) error {
	if c.store == nil {
		return nil
	}
	return c.store.Load(name, duration, style)
}

// LoadLastUsedPreset loads the preset recorded when the controllable was last
// disabled.
func (c *Controllable) LoadLastUsedPreset() error {
	if c.store == nil {
		return nil
	}
	_, err := c.store.LoadLastUsed()
	return err
}

// RefreshPresets re-reads the preset directory.
func (c *Controllable) RefreshPresets() ([]string, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.Refresh()
}

func (c *Controllable) presetLoaded(name string) {
	c.logger.Debug("Preset loaded", log.String("preset", name))
	c.publish(EventPresetLoaded, CurrentPresetAttribute)
}

func (c *Controllable) presetListChanged(list []string) {
	c.logger.Debug("Preset list changed", log.Strings("presets", list))
	c.currentAttr.Options = list
	if !c.enabled {
		return
	}
	c.publish(EventScriptValueChanged, CurrentPresetAttribute)
	c.publish(EventValueChanged, CurrentPresetAttribute)
}

func seconds(f float64) time.Duration {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
