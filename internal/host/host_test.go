package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	gosc "github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ocfkit/ocf/internal/config"
	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/preset"
	"github.com/ocfkit/ocf/internal/core/value"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.TickRate = 200
	cfg.Presets.Root = t.TempDir()
	cfg.Presets.Watch = false
	cfg.OSC.Listen = "127.0.0.1:0"
	cfg.OSC.RootAddress = "ocf"
	cfg.Controllables = []config.Manifest{{
		ID:         "lamp",
		UsePresets: true,
		Attributes: []config.AttributeManifest{
			{Name: "intensity", Type: "float", Default: 0.5},
			{Name: "position", Type: "vector3"},
		},
	}}
	require.NoError(t, cfg.Validate())
	return cfg
}

func read(t *testing.T, h *Host, id, attr string) value.Value {
	t.Helper()
	var v value.Value
	require.NoError(t, h.Inbox().Call(context.Background(), func() error {
		c, ok := h.Directory().Get(id)
		if !ok {
			return fmt.Errorf("no controllable %q", id)
		}
		a, ok := c.Attribute(attr)
		if !ok {
			return fmt.Errorf("no attribute %q", attr)
		}
		v = a.Value()
		return nil
	}))
	return v
}

func TestTickDrainsThenTweensThenPolls(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	h, err := New(cfg, nil)
	require.NoError(t, err)
	h.enableAll()
	defer h.disableAll()

	var order []string
	for _, typ := range []string{controllable.EventUIValueChanged, controllable.EventValueChanged} {
		typ := typ
		_, err = h.Bus().Subscribe(typ, func(ev bus.Event) error {
			order = append(order, typ+":"+ev.Data().(controllable.Change).Attribute)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, h.Inbox().Post(func() {
		_ = h.Directory().Route("/ocf/lamp/position", []value.Value{value.Float(1), value.Float(2), value.Float(3)})
	}))
	assert.Empty(t, order)

	h.Tick(5 * time.Millisecond)
	assert.Equal(t, []string{
		controllable.EventUIValueChanged + ":position",
		controllable.EventValueChanged + ":position",
	}, order)
}

func TestManifestControllablesAreBuilt(t *testing.T) {
	h, err := New(testConfig(t), nil)
	require.NoError(t, err)

	cs := h.Controllables()
	require.Len(t, cs, 1)
	assert.Equal(t, "lamp", cs[0].ID())
	_, ok := cs[0].Method(controllable.MethodSave)
	assert.True(t, ok)
	require.NotNil(t, h.master)
	_, ok = h.master.Method("SaveAll")
	assert.True(t, ok)
	assert.Nil(t, h.master.Presets())
}

func TestMasterIsReadOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	h, err := New(cfg, nil)
	require.NoError(t, err)
	h.enableAll()

	require.NoError(t, h.Directory().Route("/ocf/master/RootAddress", []value.Value{value.String("hijack")}))
	a, ok := h.master.Attribute("RootAddress")
	require.True(t, ok)
	assert.Equal(t, "ocf", a.Value().Text())
	b, _ := h.master.Attribute("IsConnected")
	assert.False(t, b.Value().Bool())
}

func TestRunRoutesOSCAndRecordsLastPreset(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	h, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool { return h.connected() }, 2*time.Second, 5*time.Millisecond)
	port := h.osc.Addr().(*net.UDPAddr).Port
	client := gosc.NewClient("127.0.0.1", port)

	require.NoError(t, client.Send(gosc.NewMessage("/ocf/lamp/intensity", float32(0.25))))
	require.Eventually(t, func() bool {
		return read(t, h, "lamp", "intensity").Float() == 0.25
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, read(t, h, "master", "IsConnected").Bool())
	assert.Equal(t, port, read(t, h, "master", "OSCInputPort").Int())

	require.NoError(t, client.Send(gosc.NewMessage("/ocf/lamp/LoadWithName", "missing", float32(0), "linear")))
	require.NoError(t, client.Send(gosc.NewMessage("/ocf/lamp/Save")))
	dir := preset.Dir(cfg.Presets.Root, "", cfg.Scene, "lamp")
	require.Eventually(t, func() bool {
		entries, _ := os.ReadDir(dir)
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	marker, err := os.ReadFile(filepath.Join(dir, preset.MarkerName))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, string(marker)))
}

func TestRunTwice(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	h, err := New(cfg, nil)
	require.NoError(t, err)
	h.running = true
	assert.ErrorIs(t, h.Run(context.Background()), ErrAlreadyRunning)
}

func TestNewControllableSharesScheduler(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	h, err := New(cfg, nil)
	require.NoError(t, err)

	c, err := h.NewControllable(controllable.Schema{
		ID:         "extra",
		UsePresets: true,
		Attributes: []*binding.Attribute{
			binding.NewAttribute("level", value.KindFloat, binding.NewCell(value.Float(0)).Slot()),
		},
	})
	require.NoError(t, err)
	require.NoError(t, c.Enable(h.Directory()))
	require.NoError(t, c.Dispatch("level", []value.Value{value.Float(4)}))
	require.NoError(t, c.Presets().Save("four"))
	require.NoError(t, c.Dispatch("level", []value.Value{value.Float(0)}))

	require.NoError(t, c.LoadPresetWithName("four", time.Second, "linear"))
	h.Tick(500 * time.Millisecond)
	a, _ := c.Attribute("level")
	assert.InDelta(t, 2.0, a.Value().Float(), 1e-9)
	h.Tick(500 * time.Millisecond)
	assert.Equal(t, 4.0, a.Value().Float())
}

func TestFailedDeliveriesAreLogged(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	core, logs := observer.New(zapcore.DebugLevel)
	h, err := New(cfg, log.NewWithCore(core))
	require.NoError(t, err)

	_, err = h.Bus().Subscribe(controllable.EventValueChanged, func(bus.Event) error {
		return errors.New("client gone")
	})
	require.NoError(t, err)
	_ = h.Bus().Publish(bus.NewEvent(controllable.EventValueChanged, "lamp", controllable.Change{Controllable: "lamp", Attribute: "intensity"}, nil))

	failed := logs.FilterMessage("Event delivery failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "lamp", failed[0].ContextMap()["source"])
	assert.Equal(t, "client gone", failed[0].ContextMap()["error"])
}

func TestTransportsAttachOnlyWhileRunning(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	cfg.OSC.Feedback.Enabled = true
	h, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Zero(t, h.Bus().Subscribers(controllable.EventValueChanged))

	require.NoError(t, h.attach())
	assert.Equal(t, 1, h.Bus().Subscribers(controllable.EventValueChanged))
	h.detach()
	assert.Zero(t, h.Bus().Subscribers(controllable.EventValueChanged))
}

func TestMasterLoadsLastUsedPresets(t *testing.T) {
	cfg := testConfig(t)
	cfg.OSC.Listen = ""
	h, err := New(cfg, nil)
	require.NoError(t, err)
	h.enableAll()
	defer h.disableAll()

	lamp := h.Controllables()[0]
	require.NoError(t, h.Directory().Route("/ocf/lamp/intensity", []value.Value{value.Float(0.9)}))
	require.NoError(t, lamp.Presets().Save("bright"))
	require.NoError(t, lamp.Presets().WriteMarker())
	require.NoError(t, h.Directory().Route("/ocf/lamp/intensity", []value.Value{value.Float(0.1)}))

	require.NoError(t, h.Directory().Route("/ocf/master/LoadLastUsedAll", nil))
	a, _ := lamp.Attribute("intensity")
	assert.Equal(t, 0.9, a.Value().Float())
}
