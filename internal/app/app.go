package app

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"healthwatch/internal/config"
	"healthwatch/internal/controllers"
	"healthwatch/internal/logger"
	"healthwatch/internal/middleware"
	"healthwatch/internal/routes"
	"healthwatch/internal/services"
)

const (
	shutdownTimeout   = 5 * time.Second
	historyRecords    = 720
	topProcessCount   = 5
	processCacheTTL   = 30 * time.Second
	requestsPerIP     = 20
	requestBurstPerIP = 40
)

// App wires the monitor to its sinks and the optional HTTP surface.
type App struct {
	cfg     config.Config
	logger  zerolog.Logger
	monitor *services.Monitor

	hub       *services.WebSocketHub
	hubCtx    context.Context
	hubCancel context.CancelFunc
	handler   http.Handler
	server    *http.Server
}

// New builds every component from cfg. Console output goes to out.
func New(cfg config.Config, log zerolog.Logger, out io.Writer) *App {
	a := &App{cfg: cfg, logger: log}
	a.hubCtx, a.hubCancel = context.WithCancel(context.Background())

	sink := services.NewMultiSink()
	if cfg.HasSink(config.SinkConsole) {
		sink.Add(config.SinkConsole, services.NewConsoleSink(out, cfg.Debug || cfg.Verbose))
	}
	if cfg.HasSink(config.SinkLog) {
		sink.Add(config.SinkLog, services.NewLogSink(logger.Component(log, "report")))
	}

	var prom *services.PrometheusSink
	if cfg.ListenAddr != "" || cfg.MetricsEndpoint != "" {
		prom = services.NewPrometheusSink()
		sink.Add("prometheus", prom)
	}
	if cfg.MetricsEndpoint != "" {
		hostname, _ := os.Hostname()
		client := services.NewRetryingHTTPClient(logger.Component(log, "push"))
		sink.Add("push", services.NewPushSink(cfg.MetricsEndpoint, cfg.PushJob, hostname, prom.Registry(), client))
	}

	if cfg.ListenAddr != "" {
		history := services.NewHistorySink(historyRecords)
		sink.Add("history", history)

		// without a signing key the tick stream stays off; monitoring does not
		auth, err := services.NewAuthService(cfg.JWTSecret, cfg.SecretKeyFile, cfg.TokenExpiry, logger.Component(log, "auth"))
		if err != nil {
			log.Error().Err(err).Msg("websocket stream disabled")
		} else {
			a.hub = services.NewWebSocketHub(logger.Component(log, "ws"))
			sink.Add("websocket", a.hub)
		}

		a.handler = a.newRouter(history, prom, auth)
		a.server = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           a.handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	if sink.Len() == 0 {
		log.Warn().Msg("no sinks configured, ticks will only be logged on failure")
	}

	a.monitor = services.NewMonitor(cfg, NewSampler(cfg, log), sink, logger.Component(log, "monitor"))
	return a
}

// NewSampler picks the sampler for cfg. Cloud providers are simulated in
// both modes.
func NewSampler(cfg config.Config, log zerolog.Logger) services.Sampler {
	seed := uint64(time.Now().UnixNano())
	if cfg.Sampler == config.SamplerSimulated {
		return services.NewSimulatedSampler(cfg.Providers, seed)
	}

	var prober services.ProviderProber
	if len(cfg.Providers) > 0 {
		prober = services.NewSimulatedProviders(rand.New(rand.NewPCG(seed, seed>>1)))
	}
	var processes *services.ProcessCache
	if cfg.Debug {
		processes = services.NewProcessCache(topProcessCount, processCacheTTL)
	}
	return services.NewHostSampler(cfg.DiskPath, cfg.Providers, prober, processes, logger.Component(log, "sampler"))
}

func (a *App) newRouter(history *services.HistorySink, prom *services.PrometheusSink, auth *services.AuthService) http.Handler {
	if !a.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	httpLog := logger.Component(a.logger, "http")
	security := middleware.NewSecurityLogger(httpLog)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(httpLog),
		middleware.SecurityHeadersMiddleware(),
		middleware.CORSMiddleware(a.cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(requestsPerIP, requestBurstPerIP), security),
	)

	routes.RegisterMonitorRoutes(r, controllers.NewStatusController(history), prom.Handler())
	if auth != nil {
		routes.RegisterAuthRoutes(r, controllers.NewWebSocketController(a.hubCtx, a.hub, auth, security, a.cfg.AllowedOrigins, httpLog))
	}

	return r
}

// Monitor returns the tick loop.
func (a *App) Monitor() *services.Monitor {
	return a.monitor
}

// Handler returns the HTTP handler, or nil when no listen address is set.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run blocks until ctx is cancelled. The in-flight tick completes, then the
// HTTP server drains and the hub disconnects its clients. A server that
// fails to listen is logged; monitoring continues without it.
func (a *App) Run(ctx context.Context) error {
	defer a.hubCancel()

	if a.hub != nil {
		go a.hub.Run(a.hubCtx)
	}

	if a.server != nil {
		go func() {
			a.logger.Info().Str("addr", a.server.Addr).Msg("http server listening")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error().Err(err).Msg("http server failed")
			}
		}()
	}

	err := a.monitor.Run(ctx)

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := a.server.Shutdown(shutdownCtx); serr != nil {
			a.logger.Warn().Err(serr).Msg("http server shutdown")
		}
	}

	return err
}
