// Package kernel assembles the application: storage, services, the
// dashboard broker, background jobs and the HTTP router. cmd/adega and the
// API tests both boot through New.
package kernel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adegaexpress/adega/app/controllers"
	"github.com/adegaexpress/adega/app/graph"
	"github.com/adegaexpress/adega/app/jobs"
	"github.com/adegaexpress/adega/app/routes"
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/pkg/cache"
	"github.com/adegaexpress/adega/pkg/database"
	"github.com/adegaexpress/adega/pkg/event"
	gql "github.com/adegaexpress/adega/pkg/graphql"
	grpcsrv "github.com/adegaexpress/adega/pkg/grpc"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/metrics"
	"github.com/adegaexpress/adega/pkg/middleware"
	"github.com/adegaexpress/adega/pkg/notification"
	"github.com/adegaexpress/adega/pkg/queue"
	"github.com/adegaexpress/adega/pkg/reqid"
	"github.com/adegaexpress/adega/pkg/response"
	"github.com/adegaexpress/adega/pkg/router"
	"github.com/adegaexpress/adega/pkg/schedule"
	"github.com/adegaexpress/adega/pkg/sse"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const dbHealthEvery = 15 * time.Second

// Options overrides what New would otherwise build from config. Only DB is
// required.
type Options struct {
	DB       *gorm.DB
	Cache    cache.Store
	Queue    *queue.Manager
	Notifier notification.Sender
}

type App struct {
	DB        *gorm.DB
	Cache     cache.Store
	Broker    *sse.Broker
	Events    *event.Bus
	Queue     *queue.Manager
	Ledger    *services.StockLedger
	Orders    *services.OrderService
	Catalog   *services.CatalogService
	Couriers  *services.CourierService
	Auth      *services.AuthService
	Router    *router.Router
	GRPC      *grpcsrv.Server
	Scheduler *schedule.Scheduler

	redis *redis.Client
}

// New wires every component. Nothing runs until Start.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("kernel: database is required")
	}
	a := &App{DB: opts.DB, Cache: opts.Cache, Queue: opts.Queue}

	if err := metrics.InstrumentDB(a.DB); err != nil {
		return nil, fmt.Errorf("kernel: instrument db: %w", err)
	}
	if err := a.connectRedis(ctx); err != nil {
		return nil, err
	}
	if a.Cache == nil {
		a.Cache = a.buildCache(ctx)
	}
	if a.Queue == nil {
		a.Queue = a.buildQueue()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notification.New()
	}
	a.Queue.Register(jobs.LowStockAlertFactory(notifier))

	a.Broker = sse.NewBroker()
	a.Events = event.NewBus()
	a.Events.ListenAll(a.Broker.Publish)

	a.Ledger = services.NewStockLedger(a.DB)
	a.Catalog = services.NewCatalogService(a.DB, a.Ledger, a.Cache)
	a.Ledger.Observe(a.Catalog)
	a.Ledger.Observe(services.NewLowStockWatcher(a.Queue, config.LowStockThreshold()))
	a.Orders = services.NewOrderService(a.DB, a.Ledger, a.Events)
	a.Couriers = services.NewCourierService(a.DB)
	a.Auth = services.NewAuthService(a.DB)

	schema, err := graph.Schema(graph.Resolvers{
		Orders:    a.Orders,
		Catalog:   a.Catalog,
		Couriers:  a.Couriers,
		Threshold: config.LowStockThreshold(),
	})
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}

	a.Router = buildRouter(routes.API{
		Orders:   controllers.NewOrderController(a.Orders),
		Catalog:  controllers.NewCatalogController(a.Catalog),
		Couriers: controllers.NewCourierController(a.Couriers),
		Auth:     controllers.NewAuthController(a.Auth),
		Streams:  controllers.NewStreamController(a.Broker),
		GraphQL:  gql.Handler(schema),
	}, a.health)

	a.GRPC = grpcsrv.New()
	a.Scheduler = schedule.New()
	a.Scheduler.Every(config.HeartbeatInterval()).Name("sse:heartbeat").Run(func(context.Context) {
		a.Broker.Heartbeat()
	})
	a.Scheduler.Every(dbHealthEvery).Name("db:health").WithoutOverlapping().Run(a.checkDatabase)

	return a, nil
}

// RouteTable builds the router without any backing services, for
// route:list.
func RouteTable() *router.Router {
	return buildRouter(routes.API{
		Orders:   controllers.NewOrderController(nil),
		Catalog:  controllers.NewCatalogController(nil),
		Couriers: controllers.NewCourierController(nil),
		Auth:     controllers.NewAuthController(nil),
		Streams:  controllers.NewStreamController(nil),
		GraphQL:  http.NotFoundHandler(),
	}, func(http.ResponseWriter, *http.Request) {})
}

// buildRouter stacks the global middleware, outermost first: metrics,
// panic recovery, request id, access log, CORS, rate limit.
func buildRouter(api routes.API, health http.HandlerFunc) *router.Router {
	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.NewRateLimiter(config.RateLimitPerMinute(), time.Minute).Middleware,
	)

	r.Handle("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", health)
	routes.RegisterAPI(r, api)
	return r
}

func (a *App) Handler() http.Handler { return a.Router.Handler() }

// Start runs queue workers (when workers > 0) and the scheduler until ctx
// ends. The gRPC server is started separately by the server package.
func (a *App) Start(ctx context.Context, workers int) {
	if workers > 0 {
		go a.Queue.Work(ctx, workers)
	}
	a.Scheduler.Start(ctx)
}

// Close releases what New opened. The database belongs to the caller.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, a.DB); err != nil {
		logger.WithCtx(r.Context()).Warn("health: database unreachable", "error", err)
		response.Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	response.Success(w, map[string]interface{}{
		"database": "up",
		"channels": a.Broker.Len(),
	})
}

func (a *App) checkDatabase(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := database.Ping(pingCtx, a.DB)
	if err != nil {
		logger.Warn("db:health: ping failed", "error", err)
	}
	a.GRPC.SetServing(err == nil)
}

func (a *App) connectRedis(ctx context.Context) error {
	needCache := a.Cache == nil && config.CacheDriver() == "redis"
	needQueue := a.Queue == nil && config.QueueDriver() == "redis"
	if !needCache && !needQueue {
		return nil
	}

	rdb, err := cache.NewRedisClient(ctx, config.RedisAddr(), config.RedisPassword())
	if err != nil {
		if needQueue {
			return fmt.Errorf("kernel: queue driver is redis: %w", err)
		}
		logger.Warn("cache: redis unavailable, using memory", "error", err)
		return nil
	}
	a.redis = rdb
	return nil
}

func (a *App) buildCache(ctx context.Context) cache.Store {
	if config.CacheDriver() == "redis" {
		if a.redis != nil {
			return cache.NewRedis(a.redis)
		}
		return cache.NewMemory()
	}
	store, err := cache.New(ctx)
	if err != nil {
		logger.Warn("cache: falling back to memory", "error", err)
		return cache.NewMemory()
	}
	return store
}

func (a *App) buildQueue() *queue.Manager {
	var driver queue.Driver = queue.NewMemoryDriver()
	if config.QueueDriver() == "redis" && a.redis != nil {
		driver = queue.NewRedisDriver(a.redis, "")
	}
	return queue.NewManager(driver, queue.WithFailedJobStore(a.DB))
}
