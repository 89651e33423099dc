package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"livre/internal/audit"
	"livre/internal/crypto"
	idhandler "livre/internal/identity/handler"
	idservice "livre/internal/identity/service"
	"livre/internal/identity/snapshot"
	idstore "livre/internal/identity/store"
	"livre/internal/platform/config"
	"livre/internal/platform/httpserver"
	"livre/internal/platform/logger"
	"livre/internal/platform/metrics"
	"livre/internal/platform/middleware"
	platformredis "livre/internal/platform/redis"
	"livre/internal/proof"
	proofhandler "livre/internal/proof/handler"
	proofstore "livre/internal/proof/store"
	"livre/internal/vault"
)

// main wires the identity core: encrypted snapshot, vault, registry,
// proof pipeline, and the HTTP surface. Business logic lives in the
// internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsingDefaultPassphrase() {
		log.Warn("snapshot passphrase is the development default; set LIVRE_SNAPSHOT_PASSPHRASE in production")
	}

	// The vault key protects attribute blobs for this process's lifetime
	// only; durable state lives in the passphrase-encrypted snapshot.
	vaultKey, err := crypto.NewVaultKey()
	if err != nil {
		log.Error("vault key generation failed", "error", err)
		os.Exit(1)
	}
	cipher, err := crypto.NewCipher(vaultKey)
	if err != nil {
		log.Error("vault cipher init failed", "error", err)
		os.Exit(1)
	}

	snapshots := snapshot.NewFileStore(cfg.SnapshotPath, cfg.SnapshotPassphrase)
	identityStore := idstore.NewInMemoryStore()
	m := metrics.New()

	records, err := snapshots.Load()
	switch {
	case err == nil:
		for _, record := range records {
			if saveErr := identityStore.Save(ctx, record); saveErr != nil {
				log.Error("snapshot restore failed", "error", saveErr)
				os.Exit(1)
			}
		}
		log.Info("snapshot restored", "path", cfg.SnapshotPath, "identities", len(records))
	case errors.Is(err, snapshot.ErrNoSnapshot):
		log.Info("no snapshot found, starting with an empty registry", "path", cfg.SnapshotPath)
	case errors.Is(err, snapshot.ErrWrongPassphrase):
		// Never continue with an empty registry over an undecryptable one.
		log.Error("snapshot exists but cannot be decrypted; check LIVRE_SNAPSHOT_PASSPHRASE", "path", cfg.SnapshotPath)
		os.Exit(1)
	case errors.Is(err, snapshot.ErrCorrupt):
		log.Error("snapshot is corrupt; refusing to overwrite it with an empty registry", "path", cfg.SnapshotPath)
		os.Exit(1)
	default:
		log.Error("snapshot load failed", "error", err)
		os.Exit(1)
	}

	identities := idservice.New(identityStore, vault.New(cipher), snapshots, log, m)

	registry, cleanup, err := buildProofRegistry(ctx, cfg)
	if err != nil {
		log.Error("proof registry init failed", "backend", cfg.ProofRegistry, "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}
	log.Info("proof registry ready", "backend", cfg.ProofRegistry)

	auditor := audit.NewPublisher(audit.NewInMemoryStore())
	proofs := proof.New(identities, registry, auditor, log, m)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ContentTypeJSON)

	idhandler.New(identities, log).Register(router)
	proofhandler.New(proofs, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildProofRegistry selects the proof log backend from configuration. The
// returned cleanup closes backend connections and may be nil.
func buildProofRegistry(ctx context.Context, cfg config.Server) (proof.Registry, func(), error) {
	switch cfg.ProofRegistry {
	case config.ProofRegistryMemory:
		return proofstore.NewInMemoryRegistry(), nil, nil

	case config.ProofRegistryRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("redis backend selected but LIVRE_REDIS_URL is empty")
		}
		return proofstore.NewRedisRegistry(client.Client), func() { _ = client.Close() }, nil

	case config.ProofRegistryPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, errors.New("postgres backend selected but LIVRE_POSTGRES_DSN is empty")
		}
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		registry := proofstore.NewPostgresRegistry(db)
		if err := registry.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return registry, func() { _ = db.Close() }, nil

	default:
		return nil, nil, errors.New("unknown proof registry backend: " + cfg.ProofRegistry)
	}
}
