package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	apphandler "lgac/internal/application/handler"
	appmetrics "lgac/internal/application/metrics"
	appservice "lgac/internal/application/service"
	appstore "lgac/internal/application/store"
	"lgac/internal/audit"
	"lgac/internal/certificate"
	certhandler "lgac/internal/certificate/handler"
	certmetrics "lgac/internal/certificate/metrics"
	certstore "lgac/internal/certificate/store"
	httpapi "lgac/internal/http"
	identityhandler "lgac/internal/identity/handler"
	identitymetrics "lgac/internal/identity/metrics"
	identityservice "lgac/internal/identity/service"
	identitystore "lgac/internal/identity/store"
	jwttoken "lgac/internal/jwt_token"
	lgahandler "lgac/internal/lga/handler"
	lgaservice "lgac/internal/lga/service"
	lgastore "lgac/internal/lga/store"
	"lgac/internal/nin"
	"lgac/internal/payment/gateway"
	paymenthandler "lgac/internal/payment/handler"
	paymentmetrics "lgac/internal/payment/metrics"
	paymentservice "lgac/internal/payment/service"
	paymentstore "lgac/internal/payment/store"
	"lgac/internal/platform/config"
	"lgac/internal/platform/httpserver"
	"lgac/internal/platform/kafka"
	"lgac/internal/platform/logger"
	"lgac/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages. Postgres, Redis and Kafka are each optional: missing configuration
// falls back to in-process stores, which suits local development only.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var db *sql.DB
	var users identitystore.Store
	var lgas lgastore.Store
	var apps appstore.Store
	var payments paymentstore.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			fatal(log, "open database", err)
		}
		if err := db.PingContext(ctx); err != nil {
			fatal(log, "ping database", err)
		}
		defer db.Close()
		users = identitystore.NewPostgres(db)
		lgas = lgastore.NewPostgres(db)
		apps = appstore.NewPostgres(db)
		payments = paymentstore.NewPostgres(db)
	} else {
		users = identitystore.NewInMemory()
		lgas = lgastore.NewInMemory()
		apps = appstore.NewInMemory()
		payments = paymentstore.NewInMemory()
		log.Warn("LGAC_DATABASE_URL not set, using in-memory storage")
	}

	var creds nin.CredentialStore
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		fatal(log, "connect redis", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		creds = nin.NewRedisCredentialStore(redisClient.Client)
	} else {
		creds = nin.NewInMemoryCredentialStore()
		log.Warn("LGAC_REDIS_URL not set, using in-memory credential store")
	}

	// Audit events always land in the in-process sink; Kafka fans them out to
	// the rest of the platform when brokers are configured.
	sinks := []audit.Sink{audit.NewMemorySink()}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			fatal(log, "connect kafka", err)
		}
		defer producer.Close()
		sinks = append(sinks, audit.NewKafkaSink(producer))
		log.Info("audit events publishing to kafka", "topic", cfg.AuditTopic)
	}
	auditor := audit.NewPublisher(log, 256, sinks...)
	defer auditor.Close()

	var verifier nin.Verifier
	if cfg.VerifyMe.MockMode {
		verifier = nin.MockVerifier{}
		log.Warn("NIN verification running in mock mode")
	} else {
		verifier = nin.NewHTTPVerifier(cfg.VerifyMe.BaseURL, cfg.VerifyMe.APIKey, cfg.VerifyMe.Timeout, log)
	}
	paystack := gateway.NewPaystack(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL,
		cfg.Paystack.InitTimeout, cfg.Paystack.VerifyTimeout)

	// Certificate documents and LGA branding assets share one blob root.
	blobs := certstore.NewFilesystem(cfg.CertificateDir)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "lgac", "lgac-portal")
	paymentMetrics := paymentmetrics.New()

	identitySvc := identityservice.New(users, creds, verifier, tokens, auditor, log,
		identitymetrics.New(), identityservice.Config{AccessTokenTTL: time.Hour})
	lgaSvc := lgaservice.New(lgas, log)
	engine := certificate.NewEngine(db, apps, lgas,
		certificate.NewPDFRenderer(cfg.StateName), blobs, blobs,
		auditor, log, certmetrics.New(), cfg.SiteURL)
	appSvc := appservice.New(apps, users, lgas, engine, auditor, log, appmetrics.New())
	paymentSvc := paymentservice.New(payments, apps, appSvc, paystack, auditor, log,
		paymentMetrics, paymentservice.Config{
			FeeKobo:     cfg.FeeKobo,
			CallbackURL: cfg.SiteURL + "/payments/verify",
		})

	router := httpapi.NewRouter(httpapi.Handlers{
		Identity:    identityhandler.New(identitySvc, users, log),
		LGA:         lgahandler.New(lgaSvc, users, log),
		Application: apphandler.New(appSvc, users, log),
		Payment:     paymenthandler.New(paymentSvc, users, cfg.Paystack.SecretKey, log, paymentMetrics),
		Certificate: certhandler.New(engine, users, log),
	}, tokens, log)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting lgac portal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal(log, "graceful shutdown failed", err)
	}
	log.Info("server stopped")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
