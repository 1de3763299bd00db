package config

import (
	"errors"
	"fmt"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/value"
)

var (
	ErrEmptyManifestID = errors.New("manifest id is empty")
	ErrBadDefault      = errors.New("unusable default value")
)

// Manifest declares a controllable whose attributes live in memory.
type Manifest struct {
	ID         string              `yaml:"id"`
	Folder     string              `yaml:"folder,omitempty"`
	UsePresets bool                `yaml:"use_presets"`
	Attributes []AttributeManifest `yaml:"attributes"`
}

type AttributeManifest struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Default is a scalar, a list of components or a canonical string.
	Default          any      `yaml:"default,omitempty"`
	IncludeInPresets *bool    `yaml:"include_in_presets,omitempty"`
	ReadOnly         bool     `yaml:"read_only,omitempty"`
	ShowInUI         *bool    `yaml:"show_in_ui,omitempty"`
	Options          []string `yaml:"options,omitempty"`
}

func (m Manifest) Validate() error {
	if m.ID == "" {
		return ErrEmptyManifestID
	}
	names := make(map[string]bool, len(m.Attributes))
	for _, a := range m.Attributes {
		if a.Name == "" {
			return fmt.Errorf("%s: %w", m.ID, binding.ErrEmptyName)
		}
		if names[a.Name] {
			return fmt.Errorf("%s: %w: %q", m.ID, binding.ErrDuplicateKey, a.Name)
		}
		names[a.Name] = true
		if _, err := a.Initial(); err != nil {
			return fmt.Errorf("%s.%s: %w", m.ID, a.Name, err)
		}
	}
	return nil
}

// Schema builds the controllable schema, backing each attribute with a cell
// holding its default.
func (m Manifest) Schema() (controllable.Schema, error) {
	s := controllable.Schema{
		ID:         m.ID,
		Folder:     m.Folder,
		UsePresets: m.UsePresets,
		Attributes: make([]*binding.Attribute, 0, len(m.Attributes)),
	}
	for _, am := range m.Attributes {
		initial, err := am.Initial()
		if err != nil {
			return controllable.Schema{}, fmt.Errorf("%s.%s: %w", m.ID, am.Name, err)
		}
		a := binding.NewAttribute(am.Name, initial.Kind(), binding.NewCell(initial).Slot())
		a.Interactible = !am.ReadOnly
		if am.IncludeInPresets != nil {
			a.IncludeInPresets = *am.IncludeInPresets
		}
		if am.ShowInUI != nil {
			a.ShowInUI = *am.ShowInUI
		}
		a.Options = am.Options
		s.Attributes = append(s.Attributes, a)
	}
	return s, nil
}

// Initial returns the typed default of the attribute.
func (a AttributeManifest) Initial() (value.Value, error) {
	k, err := value.ParseKind(a.Type)
	if err != nil {
		return value.Value{}, err
	}

	switch d := a.Default.(type) {
	case nil:
		return value.Zero(k), nil
	case string:
		if len(a.Options) > 0 && k == value.KindInt {
			if i := value.EnumIndex(a.Options, d); i >= 0 {
				return value.Int(i), nil
			}
		}
		return value.Parse(d, k), nil
	case []any:
		if !k.Compound() || (len(d) != k.Arity() && !(k == value.KindColor && len(d) == 3)) {
			return value.Value{}, fmt.Errorf("%w: %d components for %s", ErrBadDefault, len(d), k)
		}
		c := make([]float64, 0, 4)
		for _, x := range d {
			v, ok := value.Of(x)
			if !ok {
				return value.Value{}, fmt.Errorf("%w: component %v", ErrBadDefault, x)
			}
			c = append(c, v.Float())
		}
		if len(c) == 3 && k == value.KindColor {
			c = append(c, 1)
		}
		return value.FromComponents(k, c), nil
	default:
		v, ok := value.Of(d)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: %v", ErrBadDefault, d)
		}
		if k.Compound() {
			return value.Value{}, fmt.Errorf("%w: scalar for %s", ErrBadDefault, k)
		}
		return value.Coerce(v, k), nil
	}
}
