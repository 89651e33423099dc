package config

import (
	"os"
	"time"
)

// DefaultSnapshotPassphrase protects local development only. main warns
// loudly when it is in use; production must override it.
const DefaultSnapshotPassphrase = "livre-dev-default"

// Proof registry backends selectable via LIVRE_PROOF_REGISTRY.
const (
	ProofRegistryMemory   = "memory"
	ProofRegistryRedis    = "redis"
	ProofRegistryPostgres = "postgres"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr               string
	SnapshotPath       string
	SnapshotPassphrase string
	ProofRegistry      string
	Redis              RedisConfig
	PostgresDSN        string
	ShutdownTimeout    time.Duration
}

// RedisConfig mirrors the knobs the redis client accepts.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// UsingDefaultPassphrase reports whether the insecure dev passphrase is live.
func (s Server) UsingDefaultPassphrase() bool {
	return s.SnapshotPassphrase == DefaultSnapshotPassphrase
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("LIVRE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	snapshotPath := os.Getenv("LIVRE_SNAPSHOT_PATH")
	if snapshotPath == "" {
		snapshotPath = "data/registry.enc"
	}

	passphrase := os.Getenv("LIVRE_SNAPSHOT_PASSPHRASE")
	if passphrase == "" {
		passphrase = DefaultSnapshotPassphrase
	}

	backend := os.Getenv("LIVRE_PROOF_REGISTRY")
	if backend == "" {
		backend = ProofRegistryMemory
	}

	return Server{
		Addr:               addr,
		SnapshotPath:       snapshotPath,
		SnapshotPassphrase: passphrase,
		ProofRegistry:      backend,
		Redis: RedisConfig{
			URL:          os.Getenv("LIVRE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		PostgresDSN:     os.Getenv("LIVRE_POSTGRES_DSN"),
		ShutdownTimeout: 10 * time.Second,
	}
}
