package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"schoolhub/internal/audit"
	"schoolhub/internal/finance"
	"schoolhub/internal/identity"
	"schoolhub/internal/jwttoken"
	"schoolhub/internal/platform/config"
	"schoolhub/internal/platform/database"
	"schoolhub/internal/platform/httpserver"
	"schoolhub/internal/platform/logger"
	"schoolhub/internal/platform/metrics"
	"schoolhub/internal/platform/redis"
	"schoolhub/internal/school"
	httptransport "schoolhub/internal/transport/http"
	"schoolhub/internal/users"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	stream, err := audit.NewKafkaStream(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		log.Error("audit stream setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer stream.Close()

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	var userStore users.Store = users.NewPostgres(db)
	if cache != nil {
		userStore = users.NewCached(userStore, cache, cfg.Redis.UserTTL, log)
	}
	userSvc := users.NewService(userStore, tokens, cfg.TokenTTL,
		users.WithLogger(log), users.WithMetrics(m))

	resolver := identity.NewResolver(tokens, userStore, cfg.TrustProxyHeaders, log)
	gate := identity.NewGate(resolver, log, m)
	if cfg.TrustProxyHeaders {
		log.Warn("trusted proxy headers enabled; deploy only behind a proxy that strips X-User-* from external traffic")
	}

	recorderOpts := []audit.Option{audit.WithMetrics(m)}
	if stream != nil {
		recorderOpts = append(recorderOpts, audit.WithStream(stream))
	}
	recorder := audit.NewRecorder(audit.NewPostgresStore(db), log, recorderOpts...)

	financeSvc := finance.NewService(
		finance.NewPostgresExpenseStore(db),
		finance.NewPostgresWaiverStore(db),
		finance.NewPostgresCollectionStore(db),
		finance.WithLogger(log),
		finance.WithMetrics(m),
		finance.WithTracer(finance.Tracer()),
	)
	schoolSvc := school.NewService(
		school.NewPostgresStudentStore(db),
		school.NewPostgresClassStore(db),
		school.NewPostgresNoticeStore(db),
		log,
	)

	router := httptransport.NewRouter(log, m,
		httptransport.NewAuthHandler(userSvc, gate, log),
		httptransport.NewSchoolHandler(schoolSvc, gate, log),
		httptransport.NewFinanceHandler(financeSvc, recorder, gate, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting schoolhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
