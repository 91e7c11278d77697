package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "MONGO_DATABASE", "MONGO_TRANSACTIONS", "ASSET_DIR", "AUTH_PROVIDER", "TOKEN_TTL", "POSTS_PER_PAGE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" || cfg.StoreDriver != "mongo" || cfg.MongoDatabase != "messages" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.MongoTransactions {
		t.Error("expected mongo transactions on by default")
	}
	if cfg.AssetDir != "images" || cfg.AuthProvider != "jwt" {
		t.Errorf("unexpected asset/auth defaults: %+v", cfg)
	}
	if cfg.TokenTTL != time.Hour || cfg.PostsPerPage != 2 {
		t.Errorf("unexpected ttl/page size: %v %d", cfg.TokenTTL, cfg.PostsPerPage)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("MONGO_TRANSACTIONS", "false")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("POSTS_PER_PAGE", "10")

	cfg := Load()
	if cfg.StoreDriver != "postgres" || cfg.MongoTransactions {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.TokenTTL != 30*time.Minute || cfg.PostsPerPage != 10 {
		t.Errorf("unexpected ttl/page size: %v %d", cfg.TokenTTL, cfg.PostsPerPage)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	t.Setenv("POSTS_PER_PAGE", "-3")
	t.Setenv("MONGO_TRANSACTIONS", "maybe")

	cfg := Load()
	if cfg.TokenTTL != time.Hour || cfg.PostsPerPage != 2 || !cfg.MongoTransactions {
		t.Errorf("invalid values should fall back to defaults: %+v", cfg)
	}
}

func TestFirebaseEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"nothing configured", Config{AssetDriver: "disk", AuthProvider: "jwt"}, false},
		{"credentials only", Config{FirebaseCredentialsPath: "creds.json"}, true},
		{"bucket storage", Config{AssetDriver: "firebase"}, true},
		{"firebase auth", Config{AuthProvider: "firebase"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.FirebaseEnabled(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInitDB_Memory(t *testing.T) {
	db, err := InitDB(&Config{StoreDriver: "memory"}, testLogger())
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if db.Postgres != nil || db.Mongo != nil {
		t.Error("memory driver should open no connections")
	}
	db.CloseDB()

	if _, err := InitDB(&Config{StoreDriver: "sqlite"}, testLogger()); err == nil {
		t.Error("expected error for unknown driver")
	}
	if _, err := InitDB(&Config{StoreDriver: "postgres"}, testLogger()); err == nil {
		t.Error("expected error for missing POSTGRES_URL")
	}
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
