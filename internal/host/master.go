package host

import (
	"net"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/value"
)

// readOnly exposes live state as an attribute that rejects writes.
func readOnly(name string, kind value.Kind, get func() value.Value) *binding.Attribute {
	a := binding.NewAttribute(name, kind, binding.Slot{Get: get, Set: func(value.Value) {}})
	a.Interactible = false
	a.IncludeInPresets = false
	return a
}

// newMaster builds the controllable describing the daemon itself. Its methods
// run the bulk preset operations over every registered controllable.
func (h *Host) newMaster(id string) (*controllable.Controllable, error) {
	bulk := func(name string, op func() error) *binding.Method {
		return binding.NewMethod(name, func([]value.Value) {
			if err := op(); err != nil {
				h.logger.Warn("Bulk preset operation failed", log.String("method", name), log.Error(err))
			}
		})
	}

	listenHost, _, _ := net.SplitHostPort(h.cfg.OSC.Listen)
	schema := controllable.Schema{
		ID: id,
		Attributes: []*binding.Attribute{
			readOnly("IPAddress", value.KindString, func() value.Value { return value.String(listenHost) }),
			readOnly("OSCInputPort", value.KindInt, func() value.Value { return value.Int(h.oscPort()) }),
			readOnly("IsConnected", value.KindBool, func() value.Value { return value.Bool(h.connected()) }),
			readOnly("RootAddress", value.KindString, func() value.Value { return value.String(h.dir.Root()) }),
		},
		Methods: []*binding.Method{
			bulk("SaveAll", h.dir.SaveAll),
			bulk("SaveAsAll", h.dir.SaveAsAll),
			bulk("LoadAll", h.dir.LoadAll),
			bulk("LoadLastUsedAll", h.dir.LoadLastUsedAll),
			bulk("RefreshAll", h.dir.RefreshAll),
		},
	}
	return controllable.New(schema, controllable.WithBus(h.bus), controllable.WithLogger(h.logger))
}

func (h *Host) oscPort() int {
	if h.osc == nil {
		return 0
	}
	if addr, ok := h.osc.Addr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return h.cfg.OSCPort()
}

func (h *Host) connected() bool {
	return h.osc != nil && h.osc.Connected()
}
