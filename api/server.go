package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
	"github.com/webpiratt/autoswap/internal/market"
	"github.com/webpiratt/autoswap/internal/tasks"
	"github.com/webpiratt/autoswap/internal/tokens"
	"github.com/webpiratt/autoswap/service"
)

type Server struct {
	cfg      *config.Config
	orders   service.Orders
	registry *tokens.Registry
	market   market.Market
	client   *asynq.Client
	sdClient *statsd.Client
	logger   *logrus.Logger
}

// NewServer returns a new server.
func NewServer(
	cfg *config.Config,
	orders service.Orders,
	registry *tokens.Registry,
	mkt market.Market,
	client *asynq.Client,
	sdClient *statsd.Client,
	logger *logrus.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		orders:   orders,
		registry: registry,
		market:   mkt,
		client:   client,
		sdClient: sdClient,
		logger:   logger,
	}
}

func (s *Server) StartServer() error {
	e := echo.New()
	e.Logger.SetLevel(log.DEBUG)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2M")) // set maximum allowed size for a request body to 2M
	e.Use(s.statsdMiddleware)
	e.Use(middleware.CORS())
	limiterStore := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{Rate: 5, Burst: 30, ExpiresIn: 5 * time.Minute},
	)
	e.Use(middleware.RateLimiter(limiterStore))

	e.Validator = &RequestValidator{Validator: validator.New()}

	s.registerRoutes(e)

	return e.Start(fmt.Sprintf(":%d", s.cfg.Server.Port))
}

func (s *Server) registerRoutes(e *echo.Echo) {
	e.GET("/ping", s.Ping)
	e.GET("/tokens", s.ListTokens)
	e.GET("/balances", s.GetBalances)
	e.POST("/jobs/:name/run", s.RunJob)

	swaps := e.Group("/swaps")
	swaps.POST("", s.CreateScheduledSwap)
	swaps.GET("", s.ListScheduledSwaps)
	swaps.DELETE("/:orderId", s.CancelScheduledSwap)
	swaps.GET("/executed", s.ListExecutedSwaps)

	orders := e.Group("/orders")
	orders.POST("", s.CreateLimitOrder)
	orders.GET("", s.ListLimitOrders)
	orders.DELETE("/:orderId", s.CancelLimitOrder)
	orders.GET("/executed", s.ListExecutedLimitOrders)

	dca := e.Group("/dca")
	dca.POST("", s.CreateDCAOrder)
	dca.GET("", s.ListDCAOrders)
	dca.DELETE("/:orderId", s.CancelDCAOrder)
}

func (s *Server) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "Autoswap server is running")
}

// RunJob enqueues an immediate run of one of the periodic jobs, ahead of
// its next scheduled tick. The Task Gate still applies inside the worker.
func (s *Server) RunJob(c echo.Context) error {
	taskType, ok := tasks.TypeForJob(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown job %q", c.Param("name")))
	}
	_, err := s.client.Enqueue(asynq.NewTask(taskType, nil),
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
		asynq.Queue(tasks.QUEUE_NAME))
	if err != nil {
		return fmt.Errorf("fail to enqueue task, err: %w", err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) ListTokens(c echo.Context) error {
	assets, err := s.registry.Tokens(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to resolve token list, err: %w", err)
	}
	return c.JSON(http.StatusOK, assets)
}

func (s *Server) GetBalances(c echo.Context) error {
	ctx := c.Request().Context()
	assets, err := s.registry.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("fail to resolve token list, err: %w", err)
	}
	balances, err := s.market.WalletBalances(ctx, assets)
	if err != nil {
		return fmt.Errorf("fail to fetch balances, err: %w", err)
	}
	return c.JSON(http.StatusOK, balances)
}
