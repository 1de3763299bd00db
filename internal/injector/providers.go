package injector

import (
	"github.com/ocfkit/ocf/internal/config"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/host"
)

// App is the daemon: the engine and the logger it writes to.
type App struct {
	Host   *host.Host
	Logger *log.Logger
}

func NewApp(h *host.Host, logger *log.Logger) *App {
	return &App{Host: h, Logger: logger}
}

// ProvideLogger builds the daemon logger from the configured level and format.
func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(log.ParseLevel(cfg.LogLevel), log.WithEncoding(cfg.LogFormat))
}
