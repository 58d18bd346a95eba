package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/amm-router/internal/config"
	"github.com/hxuan190/amm-router/internal/http/httputil"
	"github.com/hxuan190/amm-router/internal/http/middlewares"
	"github.com/hxuan190/amm-router/internal/services"
	"github.com/hxuan190/amm-router/internal/services/router"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	routerSvc   *router.Service
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

// NewHTTPService builds the service outside the container.
func NewHTTPService(conf *config.GeneralConfig, routerSvc *router.Service) *HTTPService {
	svc := &HTTPService{}
	svc.setup(conf, routerSvc)
	return svc
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

// Handler is the gin engine with middlewares and every API route.
func (svc *HTTPService) Handler() *gin.Engine {
	r := gin.Default()

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowCredentials = true
	corsConf.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok", "chainId": svc.routerSvc.Chain().ChainID})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		httputil.NotFound(c, fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	svc.setupHandlers(pub, priv, admin)
	return r
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	svc.logger.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}

	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	conf, ok := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if !ok || conf == nil {
		return errors.New("invalid server config")
	}
	routerSvc, ok := c.Instance(router.ROUTER_SERVICE).(*router.Service)
	if !ok || routerSvc == nil {
		return errors.New("router service is not registered")
	}
	svc.setup(conf, routerSvc)
	return nil
}

func (svc *HTTPService) setup(conf *config.GeneralConfig, routerSvc *router.Service) {
	svc.logger = services.NewServiceLogger(svc)
	svc.conf = conf
	svc.routerSvc = routerSvc
	svc.rateLimiter = middlewares.NewRateLimiter(conf.RateLimit, conf.RateBurst)

	svc.handlers = []httputil.IHttpHandler{
		NewQuoteHandler(routerSvc),
		NewTradeHandler(routerSvc),
		NewPairHandler(routerSvc),
	}
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		svc.logger.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	svc.logger.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
