package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/lilrhino/dojopal-api/internal/adapters/httpapi"
	memaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/memory/accountrepo"
	memadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/memory/adminrepo"
	memidempotency "github.com/lilrhino/dojopal-api/internal/adapters/memory/idempotency"
	postgres "github.com/lilrhino/dojopal-api/internal/adapters/postgres"
	pgaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/postgres/accountrepo"
	pgadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/postgres/adminrepo"
	pgidempotency "github.com/lilrhino/dojopal-api/internal/adapters/postgres/idempotency"
	redisadapter "github.com/lilrhino/dojopal-api/internal/adapters/redis"
	redisaccountrepo "github.com/lilrhino/dojopal-api/internal/adapters/redis/accountrepo"
	redisadminrepo "github.com/lilrhino/dojopal-api/internal/adapters/redis/adminrepo"
	redisidempotency "github.com/lilrhino/dojopal-api/internal/adapters/redis/idempotency"
	"github.com/lilrhino/dojopal-api/internal/app/accounts"
	"github.com/lilrhino/dojopal-api/internal/app/roster"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/lilrhino/dojopal-api/internal/platform/clock"
	"github.com/lilrhino/dojopal-api/internal/platform/config"
	"github.com/lilrhino/dojopal-api/internal/platform/logging"
	accountrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
	adminrepoport "github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
	idempotencyport "github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

type storage struct {
	accounts accountrepoport.Repository
	admins   adminrepoport.Repository
	idem     idempotencyport.Store
	cleanup  []func()
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		// No logger until APP_ENV is known.
		_, _ = os.Stderr.WriteString("load .env: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg, err := config.LoadAppConfigFromEnv()
	if err != nil {
		_, _ = os.Stderr.WriteString("invalid config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logging.NewLogger(cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Auth configuration:
	// - Production: require JWT_* env vars and enforce bearer auth
	// - Local dev: set AUTH_MODE=dev to bypass JWT verification and use X-Debug-Subject
	var (
		authMW     func(http.Handler) http.Handler
		authIssuer string
	)
	switch cfg.AuthMode {
	case config.AuthModeDev:
		log.Warn("dev auth enabled; X-Debug-Subject is trusted", zap.String("defaultSubject", cfg.DevSubject))
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
		authIssuer = "dev"
	default:
		jwtCfg, err := config.LoadJWTConfigFromEnv()
		if err != nil {
			log.Fatal("invalid auth config", zap.Error(err))
		}
		authMW = httpapi.NewAuthMiddleware(jwtverifier.New(jwtCfg))
		authIssuer = jwtCfg.Issuer
	}

	clk := platformclock.NewSystemClock(cfg.TZ)

	st, err := openStorage(ctx, cfg, authIssuer, log)
	if err != nil {
		log.Fatal("storage unavailable", zap.String("backend", string(cfg.Storage)), zap.Error(err))
	}
	defer func() {
		for _, fn := range st.cleanup {
			fn()
		}
	}()

	gate, err := accounts.NewGateCode(cfg.SignUpCode)
	if err != nil {
		log.Fatal("invalid SIGNUP_CODE", zap.Error(err))
	}
	accountsSvc := accounts.NewService(st.accounts, st.admins, clk, gate, log)
	rosterSvc := roster.NewService(st.accounts, clk, log)
	rosterSvc.DefaultExaminer = cfg.DefaultExaminer

	api := httpapi.NewServer(accountsSvc, rosterSvc, st.idem, clk, log)
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		SignUpLimiter:  httpapi.NewSubjectRateLimiter(cfg.SignUpRatePerMinute),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening",
			zap.String("port", cfg.Port),
			zap.String("storage", string(cfg.Storage)),
			zap.String("auth", string(cfg.AuthMode)),
			zap.String("timezone", cfg.TZName),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg config.AppConfig, issuer string, log *zap.Logger) (storage, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return storage{}, err
		}
		version, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return storage{}, err
		}
		log.Info("postgres migrated", zap.Int64("version", version))

		idem := pgidempotency.NewStore(pool, issuer)
		go pruneIdempotency(ctx, idem, cfg.IdempotencyRetention, log)
		return storage{
			accounts: pgaccountrepo.NewRepo(pool),
			admins:   pgadminrepo.NewRepo(pool),
			idem:     idem,
			cleanup:  []func(){pool.Close},
		}, nil

	case config.StorageRedis:
		client, err := redisadapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return storage{}, err
		}
		keys := redisadapter.Keys{Prefix: redisadapter.DefaultKeyPrefix}
		return storage{
			accounts: redisaccountrepo.NewRepo(client, keys),
			admins:   redisadminrepo.NewRepo(client, keys),
			idem:     redisidempotency.NewStore(client, keys, cfg.IdempotencyRetention),
			cleanup:  []func(){func() { _ = client.Close() }},
		}, nil

	default:
		admins := memadminrepo.NewRepo()
		for _, id := range cfg.DevAdminSubjects {
			admins.SeedAdmin(domain.AccountID(id))
		}
		if len(cfg.DevAdminSubjects) > 0 {
			log.Info("seeded dev admins", zap.Strings("subjects", cfg.DevAdminSubjects))
		}
		return storage{
			accounts: memaccountrepo.NewRepo(),
			admins:   admins,
			idem:     memidempotency.NewStore(),
		}, nil
	}
}

// pruneIdempotency deletes stored responses older than retention until ctx ends.
func pruneIdempotency(ctx context.Context, store *pgidempotency.Store, retention time.Duration, log *zap.Logger) {
	if retention <= 0 {
		return
	}
	interval := retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Prune(ctx, now.Add(-retention))
			if err != nil {
				log.Warn("idempotency prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("idempotency records pruned", zap.Int64("deleted", n))
			}
		}
	}
}
