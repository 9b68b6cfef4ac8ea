package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/notify"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// version se fija en build: go build -ldflags "-X main.version=1.4.0".
var version = "dev"

// @title        Stock Ledger API
// @version      1.0
// @description  Ledger de stock por SKU y ubicación con reservas de pedidos.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
		Version: version,
	})
	log.Info().
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		txRunner ledger.TxRunner
		readers  usecase.Readers
		checks   []usecase.HealthChecker
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		dsn := cfg.DB.ConnectionString()
		if cfg.Store.Migrate {
			if err := postgres.Migrate(dsn); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		txRunner = postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)
		readers = usecase.Readers{
			Items:        postgres.NewInventoryItemRepository(pool),
			Movements:    postgres.NewMovementRepository(pool),
			Reservations: postgres.NewReservationRepository(pool),
		}
		checks = append(checks, postgres.NewHealthChecker(pool))
	default:
		store := memory.NewStore(cfg.Ledger.LockTimeout)
		txRunner = memory.NewTxRunner(store)
		readers = usecase.Readers{
			Items:        store.Items(),
			Movements:    store.Movements(),
			Reservations: store.Reservations(),
		}
		checks = append(checks, store)
	}

	// Caché de lectura opcional
	var (
		itemCache   usecase.ItemCache
		invalidator ledger.StockInvalidator
	)
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		stockCache := cache.NewStockCache(client, cfg.Redis.StockTTL, log.Zerolog())
		itemCache, invalidator = stockCache, stockCache
		checks = append(checks, stockCache)
	}

	// Alertas de reorden: siempre a log; a Kafka si hay brokers.
	sinks := []notify.Sink{notify.NewLogSink(log.Component("reorder"))}
	if cfg.Kafka.Enabled() {
		kafkaSink, err := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.LowStockTopic, log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("productor Kafka")
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	dispatcher := notify.NewDispatcher(log.Zerolog(), cfg.Ledger.NotifyBuffer, cfg.Ledger.NotifyWorkers, sinks...)
	dispatcher.Start()

	policy, err := ledger.ParseBatchPolicy(cfg.Ledger.BatchPolicy, ledger.BatchBestEffort)
	if err != nil {
		log.Fatal().Err(err).Msg("LEDGER_BATCH_POLICY")
	}

	engine := ledger.NewEngine(txRunner, dispatcher, invalidator, log.Zerolog())
	stockUC := usecase.NewStockUseCase(engine, readers, usecase.Options{
		DefaultLocation: cfg.Ledger.DefaultLocation,
		BatchPolicy:     policy,
		Cache:           itemCache,
		Checks:          checks,
	}, log.Zerolog())

	sweeper := ledger.NewSweeper(engine, readers.Reservations, log.Zerolog(),
		cfg.Ledger.SweepInterval, cfg.Ledger.SweepBatch)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Start(ctx)
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC: stockUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()
	<-sweepDone
	dispatcher.Close()

	log.Info().Msg("aplicación detenida")
}
