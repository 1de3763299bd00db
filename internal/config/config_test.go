package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocfkit/ocf/internal/core/value"
)

const sample = `
log_level: debug
scene: stage
tick_rate: 50
osc:
  listen: "127.0.0.1:9000"
  root_address: ocf
  feedback:
    enabled: true
    port: 9001
controllables:
  - id: lamp
    folder: rig
    use_presets: true
    attributes:
      - name: intensity
        type: float
        default: 0.5
      - name: tint
        type: color
        default: [1, 0.5, 0]
      - name: position
        type: vector3
        default: "(1, 2, 3)"
      - name: mode
        type: int
        options: [Off, Steady, Strobe]
        default: Steady
      - name: serial
        type: string
        default: L-1
        read_only: true
        include_in_presets: false
`

func TestDecodeOverDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "stage", cfg.Scene)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, "Presets", cfg.Presets.Root)
	assert.True(t, cfg.Presets.Watch)
	assert.Equal(t, 9000, cfg.OSCPort())
	assert.Equal(t, "ocf", cfg.OSC.RootAddress)
	assert.Equal(t, "127.0.0.1", cfg.OSC.Feedback.Host)
	assert.Equal(t, 9001, cfg.OSC.Feedback.Port)
	assert.True(t, cfg.Master.Enabled)
	require.Len(t, cfg.Controllables, 1)
}

func TestEmptyDocumentIsDefault(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestManifestSchema(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	m, ok := cfg.Manifest("lamp")
	require.True(t, ok)

	s, err := m.Schema()
	require.NoError(t, err)
	assert.Equal(t, "lamp", s.ID)
	assert.Equal(t, "rig", s.Folder)
	assert.True(t, s.UsePresets)
	require.Len(t, s.Attributes, 5)

	byName := map[string]value.Value{}
	for _, a := range s.Attributes {
		byName[a.Name] = a.Value()
	}
	assert.Equal(t, 0.5, byName["intensity"].Float())
	assert.Equal(t, value.RGBA{R: 1, G: 0.5, B: 0, A: 1}, byName["tint"].RGBA())
	assert.Equal(t, value.Vec3{X: 1, Y: 2, Z: 3}, byName["position"].Vec3())
	assert.Equal(t, 1, byName["mode"].Int())
	assert.Equal(t, "L-1", byName["serial"].Text())

	serial := s.Attributes[4]
	assert.False(t, serial.Interactible)
	assert.False(t, serial.IncludeInPresets)
	assert.True(t, serial.ShowInUI)
	assert.Equal(t, []string{"Off", "Steady", "Strobe"}, s.Attributes[3].Options)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"tick rate":       "tick_rate: 0",
		"unknown field":   "tick_rat: 10",
		"bad listen":      "osc:\n  listen: nowhere",
		"duplicate id":    "controllables:\n  - id: a\n  - id: a",
		"master id clash": "controllables:\n  - id: master",
		"unknown type":    "controllables:\n  - id: a\n    attributes:\n      - {name: x, type: quaternion}",
		"bad components":  "controllables:\n  - id: a\n    attributes:\n      - {name: x, type: vector3, default: [1, 2]}",
		"dup attribute":   "controllables:\n  - id: a\n    attributes:\n      - {name: x, type: int}\n      - {name: x, type: int}",
	}
	for name, doc := range cases {
		_, err := Decode(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stage", cfg.Scene)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
