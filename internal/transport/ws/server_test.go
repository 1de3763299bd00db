package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/directory"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/inbox"
	"github.com/ocfkit/ocf/internal/core/value"
)

// pump plays the tick goroutine: it drains the inbox and polls the
// directory until the test ends.
func pump(t *testing.T, in *inbox.Inbox, d *directory.Directory) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				in.Drain()
				d.Poll()
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func setup(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	b := bus.New()
	d := directory.New(directory.WithBus(b), directory.WithRoot("ocf"))
	c, err := controllable.New(controllable.Schema{
		ID: "cube",
		Attributes: []*binding.Attribute{
			binding.NewAttribute("speed", value.KindFloat, binding.NewCell(value.Float(1)).Slot()),
			binding.NewAttribute("tint", value.KindColor, binding.NewCell(value.Color(1, 1, 1, 1)).Slot()),
		},
		Methods: []*binding.Method{
			binding.NewMethod("jump", func([]value.Value) {}, value.KindFloat, value.KindVector3),
		},
	}, controllable.WithBus(b))
	require.NoError(t, err)
	require.NoError(t, c.Enable(d))

	in := inbox.New(0)
	s := NewServer(d, in, nil)
	require.NoError(t, s.Attach(b))
	pump(t, in, d)

	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return s, hs
}

func TestSnapshot(t *testing.T) {
	_, hs := setup(t)

	resp, err := http.Get(hs.URL + "/controllables")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var views []ControllableView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, "cube", v.ID)
	require.Len(t, v.Attributes, 2)
	assert.Equal(t, AttributeView{Name: "speed", Type: "float", Value: "1.00000000", ShowInUI: true, IncludeInPresets: true}, v.Attributes[0])
	assert.Equal(t, "RGBA(1.00000000, 1.00000000, 1.00000000, 1.00000000)", v.Attributes[1].Value)
	assert.Equal(t, []MethodView{{Name: "jump", Params: []string{"float", "vector3"}}}, v.Methods)
}

func TestPanelWriteIsRoutedAndEchoed(t *testing.T) {
	s, hs := setup(t)

	u := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Inbound{Address: "/ocf/cube/speed", Values: []any{2.5}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Outbound
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, Outbound{Type: "changed", ID: "cube", Attribute: "speed", Value: "2.50000000"}, got)
}

func TestPanelDisconnect(t *testing.T) {
	s, hs := setup(t)

	u := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestShutdownWithoutServe(t *testing.T) {
	s := NewServer(directory.New(), inbox.New(0), nil)
	assert.ErrorIs(t, s.Shutdown(context.Background()), ErrServerNotRunning)
}
