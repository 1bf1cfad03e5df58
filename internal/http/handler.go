package http

import (
	"context"
	"errors"
	gohttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clamm-engine/internal/config"
	"github.com/hxuan190/clamm-engine/internal/http/httputil"
	"github.com/hxuan190/clamm-engine/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

// HTTPService is the ops server: health, Prometheus metrics and a read-only
// view of the engine's size.
type HTTPService struct {
	conf        *config.GeneralConfig
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server

	handlers []httputil.IHttpHandler
}

func NewHTTPService(conf *config.GeneralConfig, engine EngineReader) *HTTPService {
	if conf.Env != config.DevEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	svc := &HTTPService{
		conf:        conf,
		rateLimiter: middlewares.NewRateLimiter(10, 20),
		handlers: []httputil.IHttpHandler{
			NewEngineHandler(engine),
		},
	}
	svc.server = &gohttp.Server{
		Addr:              conf.Addr(),
		Handler:           svc.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return svc
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.MetricsMiddleware("/metrics"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	api.Use(svc.rateLimiter.RateLimitMiddleware())
	pub := api.Group(API_VERSION)
	admin := api.Group(API_VERSION + "/admin")

	for _, h := range svc.handlers {
		h.SetRoutes(pub.Group(h.Root()), admin.Group(h.Root()))
	}
	return r
}

// Start serves until Stop is called.
// Start blocks until the server stops. A Stop issued before Start makes it
// return immediately.
func (svc *HTTPService) Start() error {
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("[http] server started")

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}
	return nil
}

// PruneClients drops rate limiter state for clients idle longer than idle.
func (svc *HTTPService) PruneClients(idle time.Duration) {
	if n := svc.rateLimiter.Prune(idle); n > 0 {
		log.Debug().Int("clients", n).Msg("[http] pruned idle clients")
	}
}

func (svc *HTTPService) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("[http] failed to stop server")
		return err
	}
	log.Info().Msg("[http] server stopped gracefully")
	return nil
}
