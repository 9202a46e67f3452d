package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-lifecycle/internal/config"
	"order-lifecycle/internal/controllers/http"
	"order-lifecycle/internal/infra"
	"order-lifecycle/internal/infra/cache"
	"order-lifecycle/internal/infra/logging"
	mmysql "order-lifecycle/internal/infra/mysql"
	"order-lifecycle/internal/infra/rabbitmq"
	"order-lifecycle/internal/repository"
	"order-lifecycle/internal/repository/memory"
	mysqlrepo "order-lifecycle/internal/repository/mysql"
	"order-lifecycle/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const tickLockKey = "orders:processor:lock"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Service)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("order service stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderRepo, productRepo, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := newNotifier(cfg.Notifier, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	s := services.NewOrderService(orderRepo, productRepo)
	processor := services.NewOrderProcessor(cfg.Processor, s, notifier, log)

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			DB:           cfg.Redis.DB,
			PoolSize:     200,
			MinIdleConns: 20,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		defer redisClient.Close()

		s.SetOrderCache(cache.NewOrderCache(redisClient, cfg.Redis.CacheTTL, log))
		processor.SetTickLocker(cache.NewTickLock(redisClient, tickLockKey))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	processor.SetMetrics(services.NewProcessorMetrics(reg))

	handler := http.NewHandler(s, services.NewProductService(productRepo), processor, reg, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler.RegisterRoutes(r)

	srv := &nethttp.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("starting order service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("server run: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return processor.Run(gctx)
	})

	return g.Wait()
}

func openStore(cfg config.Config, log zerolog.Logger) (repository.OrderRepository, repository.ProductRepository, error) {
	if cfg.Store.Driver == config.StoreMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return store.Orders(), store.Products(), nil
	}

	db, err := mmysql.NewMySQL(cfg.MySQL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: connect: %w", err)
	}
	return mysqlrepo.NewOrderRepository(db, log), mysqlrepo.NewProductRepository(db, log), nil
}

func newNotifier(cfg config.NotifierConfig, log zerolog.Logger) (infra.NotifierInterface, func(), error) {
	switch cfg.Kind {
	case config.NotifierAMQP:
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.Exchange, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init publisher: %w", err)
		}
		return publisher, publisher.Close, nil
	case config.NotifierHTTP:
		return infra.NewNotificationClient(cfg.HTTPURL, cfg.Timeout), func() {}, nil
	default:
		return infra.NewLogNotifier(log), func() {}, nil
	}
}
