package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/cache"
	cartrepo "github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/repository"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/checkout"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/config"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/fulfillment"
	h "github.com/shafadisyaaulia/seasnacky-sub000/internal/http"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/ledger"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/logger"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/metrics"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/payment"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/publisher"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/region"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Orders, outbox and users
	cred := &repository.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.PostgresMigrationsDir,
	}
	repo, err := repository.NewRepository(cred)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer repo.Close()
	if err := repo.RunMigrations(cred); err != nil {
		log.Fatal().Err(err).Msg("failed to run order migrations")
	}

	// Catalog
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to run catalog migrations")
	}

	regions, err := region.Load(cfg.RegionsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load regions")
	}

	// Session cart
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	cartStore := cartrepo.NewMongoRepository(mongoDB)
	if err := cartStore.CreateIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create cart indexes")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, cart reads fall back to mongodb")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Services
	var gateway payment.Gateway = payment.ApproveAll{}
	if cfg.PaymentSuccessRate < 100 {
		gateway = payment.NewRandomGateway(cfg.PaymentSuccessRate)
	}
	orderLedger := ledger.New(repo, catalogRepo, m, cfg.DeliveryOffset)
	cartService := cart.NewCartService(cartStore, cache.NewRedisCache(redisClient), catalogRepo)
	checkoutService := checkout.NewService(checkout.NewCalculator(catalogRepo, regions, repo), orderLedger, cartService)
	settler := payment.NewSettler(repo, gateway, m)
	machine := fulfillment.NewMachine(repo, catalogRepo, m)

	router := h.NewRouter(h.RouterConfig{
		Logger:         log,
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.RequestTimeout,
		Ready:          repo.Ping,
		Gatherer:       reg,
		Orders:         h.NewOrdersHandler(checkoutService, orderLedger, settler, machine, cfg.RequestTimeout),
		Cart:           h.NewCartHandler(cartService, cfg.RequestTimeout),
		Catalog:        h.NewCatalogHandler(catalogRepo, regions, cfg.RequestTimeout),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return err
		}
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		log.Info().Str("addr", listener.Addr().String()).Msg("gRPC health listening")
		return grpcServer.Serve(listener)
	})

	if cfg.OutboxEnabled && len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo,
			publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...),
			cfg.OutboxInterval, cfg.OutboxBatchSize, m, log)
		g.Go(func() error {
			poller.Run(gctx)
			return poller.Close()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server exited")
}
