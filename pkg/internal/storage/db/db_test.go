package db_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
)

func TestRegisteredDBTypes(t *testing.T) {
	types := db.GetRegisteredDBTypes()

	for _, want := range []configs.DBType{configs.SQLite, configs.Postgres, configs.Pg, configs.MySQL, configs.MariaDB} {
		if !slices.Contains(types, want) {
			t.Errorf("%s not registered: %v", want, types)
		}
	}
}

func TestNew_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := configs.DBConfig{
		Type:         configs.SQLite,
		Database:     filepath.Join(t.TempDir(), "vault"),
		MaxIdleConns: 1,
	}

	client, err := db.New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	defer client.Close()

	if err := client.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	var n int
	if err := client.Raw("SELECT 1").Scan(&n).Error; err != nil || n != 1 {
		t.Fatalf("select 1 = %d, %v", n, err)
	}

	if client.Config().Database != cfg.Database {
		t.Fatalf("config not kept: %+v", client.Config())
	}
}

func TestNew_Unsupported(t *testing.T) {
	if _, err := db.New(context.Background(), configs.DBConfig{Type: "duckdb", Database: "x"}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
