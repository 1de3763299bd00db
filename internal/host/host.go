// Package host wires the engine together and drives it: one tick goroutine
// owns every controllable while the transports and the preset watcher feed it
// through the inbox.
package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ocfkit/ocf/internal/config"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/directory"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/inbox"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/preset"
	"github.com/ocfkit/ocf/internal/core/tween"
	"github.com/ocfkit/ocf/internal/transport/osc"
	"github.com/ocfkit/ocf/internal/transport/ws"
)

var ErrAlreadyRunning = errors.New("host is already running")

type Host struct {
	cfg    config.Config
	logger log.Log

	bus       bus.EventBus
	inbox     *inbox.Inbox
	scheduler *tween.Scheduler
	dir       *directory.Directory
	watcher   *preset.Watcher

	osc      *osc.Server
	feedback *osc.Feedback
	panel    *ws.Server

	master        *controllable.Controllable
	controllables []*controllable.Controllable

	now     func() time.Time
	running bool
}

// New builds the engine from cfg. Nothing is bound or started until Run.
func New(cfg config.Config, logger log.Log) (*Host, error) {
	if logger == nil {
		logger = log.Nop()
	}
	h := &Host{
		cfg:       cfg,
		logger:    logger.With(log.String("component", "host")),
		bus:       bus.New(),
		inbox:     inbox.New(cfg.InboxSize),
		scheduler: tween.NewScheduler(),
		now:       time.Now,
	}
	h.dir = directory.New(
		directory.WithRoot(cfg.OSC.RootAddress),
		directory.WithBus(h.bus),
		directory.WithLogger(logger))

	if cfg.Presets.Watch {
		w, err := preset.NewWatcher(h.inbox, logger)
		if err != nil {
			h.logger.Warn("Preset watcher unavailable", log.Error(err))
		} else {
			h.watcher = w
		}
	}

	if cfg.OSC.Listen != "" {
		h.osc = osc.NewServer(cfg.OSC.Listen, h.inbox, h.dir, logger)
	}
	if cfg.OSC.Feedback.Enabled {
		h.feedback = osc.NewFeedback(cfg.OSC.Feedback.Host, cfg.OSC.Feedback.Port, cfg.OSC.RootAddress, h.dir, logger)
	}
	if cfg.WebSocket.Enabled {
		h.panel = ws.NewServer(h.dir, h.inbox, logger)
	}
	h.bus.AddObserver(deliveryLogger{logger: h.logger})

	if cfg.Master.Enabled {
		m, err := h.newMaster(cfg.Master.ID)
		if err != nil {
			return nil, err
		}
		h.master = m
	}

	for _, manifest := range cfg.Controllables {
		schema, err := manifest.Schema()
		if err != nil {
			return nil, err
		}
		c, err := h.NewControllable(schema)
		if err != nil {
			return nil, err
		}
		h.controllables = append(h.controllables, c)
	}
	return h, nil
}

// NewControllable builds a controllable sharing the host's bus, scheduler and
// preset settings. It is enabled on the next Run, or by the caller through
// Enable once running.
func (h *Host) NewControllable(s controllable.Schema) (*controllable.Controllable, error) {
	opts := []controllable.Option{
		controllable.WithBus(h.bus),
		controllable.WithLogger(h.logger),
		controllable.WithScheduler(h.scheduler),
		controllable.WithPresetRoot(h.cfg.Presets.Root, h.cfg.Scene),
	}
	if h.watcher != nil {
		opts = append(opts, controllable.WithWatcher(h.watcher))
	}
	return controllable.New(s, opts...)
}

func (h *Host) Bus() bus.EventBus { return h.bus }

func (h *Host) Inbox() *inbox.Inbox { return h.inbox }

// Directory must only be used on the tick goroutine, e.g. inside inbox jobs.
func (h *Host) Directory() *directory.Directory { return h.dir }

// Controllables returns the controllables built from the configuration.
func (h *Host) Controllables() []*controllable.Controllable {
	return append([]*controllable.Controllable(nil), h.controllables...)
}

// Tick drains the inbox, advances running tweens by dt and runs change
// detection, in that order.
func (h *Host) Tick(dt time.Duration) {
	h.inbox.Drain()
	h.scheduler.Advance(dt)
	h.dir.Poll()
}

// Run enables every controllable, starts the transports and ticks until ctx
// is done. Controllables are disabled on the tick goroutine before Run
// returns, so their last used presets are recorded.
func (h *Host) Run(ctx context.Context) error {
	if h.running {
		return ErrAlreadyRunning
	}
	h.running = true
	defer func() { h.running = false }()

	if h.osc != nil {
		if err := h.osc.Listen(); err != nil {
			return fmt.Errorf("osc listen: %w", err)
		}
	}
	if err := h.attach(); err != nil {
		return err
	}
	defer h.detach()

	h.enableAll()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.tickLoop(gctx)
		return nil
	})
	if h.osc != nil {
		g.Go(func() error { return h.osc.Serve(gctx) })
	}
	if h.panel != nil {
		g.Go(func() error { return h.panel.ListenAndServe(gctx, h.cfg.WebSocket.Listen) })
	}
	if h.watcher != nil {
		g.Go(func() error { return h.watcher.Run(gctx) })
	}

	h.logger.Info("Host running",
		log.Int("controllables", h.dir.Len()),
		log.Duration("tick", h.cfg.TickInterval()),
		log.Bool("feedback", h.feedback != nil),
		log.Bool("panel", h.panel != nil))

	err := g.Wait()
	h.disableAll()
	pending := h.inbox.Pending()
	h.inbox.Drain()
	if h.watcher != nil {
		_ = h.watcher.Close()
	}

	fields := []log.Field{
		log.Int("inbox_pending", pending),
		log.Uint64("inbox_dropped", h.inbox.Dropped()),
	}
	if h.osc != nil {
		fields = append(fields,
			log.Uint64("osc_received", h.osc.Received()),
			log.Uint64("osc_dropped", h.osc.Dropped()))
	}
	h.logger.Info("Host stopped", fields...)
	return err
}

// attach subscribes the outbound transports for the duration of a run.
func (h *Host) attach() error {
	if h.feedback != nil {
		if err := h.feedback.Attach(h.bus); err != nil {
			return fmt.Errorf("osc feedback: %w", err)
		}
	}
	if h.panel != nil {
		if err := h.panel.Attach(h.bus); err != nil {
			h.detach()
			return fmt.Errorf("panel: %w", err)
		}
	}
	return nil
}

func (h *Host) detach() {
	if h.feedback != nil {
		h.feedback.Detach()
	}
	if h.panel != nil {
		h.panel.Detach()
	}
}

func (h *Host) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.TickInterval())
	defer ticker.Stop()

	last := h.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := h.now()
			h.Tick(now.Sub(last))
			last = now
		}
	}
}

func (h *Host) enableAll() {
	if h.master != nil {
		if err := h.master.Enable(h.dir); err != nil {
			h.logger.Warn("Failed to enable master", log.Error(err))
		}
	}
	for _, c := range h.controllables {
		if err := c.Enable(h.dir); err != nil {
			h.logger.Warn("Failed to enable controllable", log.String("id", c.ID()), log.Error(err))
		}
	}
}

func (h *Host) disableAll() {
	for _, c := range h.controllables {
		c.Disable(h.dir)
	}
	if h.master != nil {
		h.master.Disable(h.dir)
	}
}

// deliveryLogger reports events whose handlers failed.
type deliveryLogger struct {
	logger log.Log
}

func (d deliveryLogger) OnDelivered(ev bus.Event, handlers int, err error, took time.Duration) {
	if err == nil {
		return
	}
	d.logger.Debug("Event delivery failed",
		log.String("event", ev.Type()),
		log.String("source", ev.Source()),
		log.Int("handlers", handlers),
		log.Duration("took", took),
		log.Error(err))
}
