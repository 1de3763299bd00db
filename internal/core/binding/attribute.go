package binding

import (
	"errors"
	"fmt"

	"github.com/ocfkit/ocf/internal/core/value"
)

var (
	ErrEmptyName    = errors.New("binding name is empty")
	ErrUnboundSlot  = errors.New("binding slot is not bound")
	ErrDuplicateKey = errors.New("duplicate binding name")
)

// Attribute exposes one named parameter.
type Attribute struct {
	Name string
	Kind value.Kind

	// Local is the controllable's own copy of the value.
	Local Slot
	// Target, when bound, is the external object the local copy mirrors.
	Target Slot

	IncludeInPresets bool
	Interactible     bool
	ShowInUI         bool

	// Options lists enumeration member names. When set, the stored value is the
	// int index of the selected member.
	Options []string
}

// NewAttribute returns an interactible attribute included in presets.
func NewAttribute(name string, kind value.Kind, local Slot) *Attribute {
	return &Attribute{
		Name:             name,
		Kind:             kind,
		Local:            local,
		IncludeInPresets: true,
		Interactible:     true,
		ShowInUI:         true,
	}
}

// Mirrored reports whether the attribute is kept in sync with a target.
func (a *Attribute) Mirrored() bool {
	return a.Target.Valid()
}

// Mirror returns the two-way binding of a mirrored attribute.
func (a *Attribute) Mirror() Mirror {
	return Mirror{Local: a.Local, Target: a.Target}
}

// Value reads the local copy.
func (a *Attribute) Value() value.Value {
	return a.Local.Get()
}

func (a *Attribute) Validate() error {
	if a.Name == "" {
		return ErrEmptyName
	}
	if !a.Local.Valid() {
		return fmt.Errorf("%w: attribute %q", ErrUnboundSlot, a.Name)
	}
	return nil
}

// Mirror keeps a local slot and a target slot in sync.
type Mirror struct {
	Local  Slot
	Target Slot
}

// Pull copies the target value into the local slot.
func (m Mirror) Pull() {
	m.Local.Set(m.Target.Get())
}

// Push copies the local value into the target slot.
func (m Mirror) Push() {
	m.Target.Set(m.Local.Get())
}
