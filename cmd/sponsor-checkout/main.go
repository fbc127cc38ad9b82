package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/internal/checkout"
	"github.com/fjod/go_cart/sponsor-checkout/internal/config"
	"github.com/fjod/go_cart/sponsor-checkout/internal/drafts"
	"github.com/fjod/go_cart/sponsor-checkout/internal/gateway"
	h "github.com/fjod/go_cart/sponsor-checkout/internal/http"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
	"github.com/fjod/go_cart/sponsor-checkout/internal/publisher"
	"github.com/fjod/go_cart/sponsor-checkout/internal/repository"
	"github.com/fjod/go_cart/sponsor-checkout/internal/session"
	"github.com/fjod/go_cart/sponsor-checkout/internal/verify"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	log.Println("sponsor-checkout starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// W3C trace context flows from the UI through to backend and PayPal calls.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Guest sessions
	var kv session.KV
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Redis ping succeeded")
		kv = session.NewRedisKV(redisClient)
	} else {
		log.Printf("REDIS_ADDR not set, guest sessions are kept in memory")
		kv = session.NewMemoryKV()
	}
	guestSessions := session.NewGuestSessions(kv)

	// Marketplace backend and gateway strategies
	api := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	draftManager := drafts.NewManager(api)

	strategies := []gateway.Strategy{
		gateway.NewStripeStrategy(draftManager, api),
		gateway.NewSquareStrategy(draftManager, api),
		gateway.NewCheckStrategy(draftManager),
		gateway.NewSandboxStrategy(draftManager, cfg.SandboxDelay),
	}
	if cfg.PayPalEnabled() {
		paypal := gateway.NewPayPalClient(gateway.PayPalConfig{
			BaseURL:      cfg.PayPalBaseURL,
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			Currency:     cfg.PayPalCurrency,
		}, &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.BackendTimeout,
		})
		strategies = append(strategies, gateway.NewPayPalStrategy(draftManager, paypal))
		log.Printf("PayPal enabled against %s", cfg.PayPalBaseURL)
	}
	dispatcher := gateway.NewDispatcher(strategies...)
	verifier := verify.NewVerifier(api, draftManager, api)
	reconciler := identity.NewReconciler(api, api, guestSessions)

	opts := checkout.Options{
		DefaultProcessingFeeRate: cfg.DefaultProcessingFeeRate,
		DefaultPlatformFeeRate:   cfg.DefaultPlatformFeeRate,
		SuccessURL:               cfg.StripeSuccessURL,
		CancelURL:                cfg.StripeCancelURL,
	}

	// Attempt ledger and event publishing
	if cfg.LedgerEnabled() {
		creds := cfg.DBCredentials()
		repo, err := repository.NewRepository(creds)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer repo.Close()

		if err := repo.RunMigrations(creds); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")
		opts.Ledger = repo

		if len(cfg.KafkaBrokers) > 0 {
			writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
			poller := publisher.NewOutboxPoller(repo, writer, cfg.OutboxInterval)
			defer poller.Close()
			go poller.Run(ctx)
			log.Printf("Outbox poller publishing to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
		}
	}

	service := checkout.NewService(api, dispatcher, verifier, guestSessions, reconciler, opts)

	secret := []byte(cfg.JWTSecret)
	router := h.NewRouter(h.RouterConfig{
		Checkout:       h.NewCheckoutHandler(service, verifier, cfg.RequestTimeout),
		Identity:       h.NewIdentityHandler(reconciler, guestSessions, secret, cfg.TokenTTL, cfg.RequestTimeout),
		JWTSecret:      secret,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// gRPC health for orchestrators
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		log.Printf("gRPC health listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down sponsor-checkout...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	cancel()

	log.Println("sponsor-checkout stopped")
}
