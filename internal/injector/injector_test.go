package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocfkit/ocf/internal/config"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.Presets.Root = t.TempDir()
	cfg.Presets.Watch = false
	cfg.Controllables = []config.Manifest{{
		ID:         "lamp",
		Attributes: []config.AttributeManifest{{Name: "on", Type: "bool"}},
	}}

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Host)
	require.NotNil(t, app.Logger)
	assert.Len(t, app.Host.Controllables(), 1)
}
