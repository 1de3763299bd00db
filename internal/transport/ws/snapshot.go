package ws

import (
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/value"
)

// ControllableView is the panel description of one controllable.
type ControllableView struct {
	ID            string          `json:"id"`
	CurrentPreset string          `json:"currentPreset,omitempty"`
	Presets       []string        `json:"presets,omitempty"`
	Attributes    []AttributeView `json:"attributes"`
	Methods       []MethodView    `json:"methods"`
}

type AttributeView struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Value            string   `json:"value"`
	ReadOnly         bool     `json:"readOnly,omitempty"`
	ShowInUI         bool     `json:"showInUI"`
	IncludeInPresets bool     `json:"includeInPresets"`
	Options          []string `json:"options,omitempty"`
}

type MethodView struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

// View describes c. It must run on the tick goroutine.
func View(c *controllable.Controllable) ControllableView {
	v := ControllableView{
		ID:         c.ID(),
		Attributes: make([]AttributeView, 0, len(c.Attributes())),
		Methods:    make([]MethodView, 0, len(c.Methods())),
	}
	if s := c.Presets(); s != nil {
		v.CurrentPreset = s.Current()
		v.Presets = s.List()
	}
	for _, a := range c.Attributes() {
		v.Attributes = append(v.Attributes, AttributeView{
			Name:             a.Name,
			Type:             a.Kind.String(),
			Value:            a.Value().String(),
			ReadOnly:         !a.Interactible,
			ShowInUI:         a.ShowInUI,
			IncludeInPresets: a.IncludeInPresets,
			Options:          a.Options,
		})
	}
	for _, m := range c.Methods() {
		v.Methods = append(v.Methods, MethodView{Name: m.Name, Params: kindNames(m.Params)})
	}
	return v
}

func kindNames(ks []value.Kind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.String()
	}
	return out
}
