package config

import (
	"strings"
	"testing"

	"github.com/catalog-feed/internal/constants"

	"github.com/spf13/viper"
)

func TestDecodeDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		t.Fatalf("decode defaults failed: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver want sqlite got %s", cfg.Database.Driver)
	}
	if cfg.Import.ParentLock != constants.ParentLockNone {
		t.Fatalf("parent lock want none got %s", cfg.Import.ParentLock)
	}
	if cfg.Import.IsolateParentFailures {
		t.Fatalf("isolate parent failures should default to false")
	}
	if cfg.Import.MaxItemsPerRequest != constants.DefaultMaxItemsPerRequest {
		t.Fatalf("max items want %d got %d", constants.DefaultMaxItemsPerRequest, cfg.Import.MaxItemsPerRequest)
	}
	if cfg.Queue.Queues[constants.QueueDefault] != 10 {
		t.Fatalf("default queue weight want 10 got %d", cfg.Queue.Queues[constants.QueueDefault])
	}
}

func TestDecodeEnvOverride(t *testing.T) {
	t.Setenv("IMPORT_PARENT_LOCK", " Redis ")
	t.Setenv("IMPORT_MAX_ITEMS_PER_REQUEST", "0")

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg, err := decode(v)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Import.ParentLock != constants.ParentLockRedis {
		t.Fatalf("parent lock want redis got %s", cfg.Import.ParentLock)
	}
	if cfg.Import.MaxItemsPerRequest != constants.DefaultMaxItemsPerRequest {
		t.Fatalf("non-positive max items should fall back to default, got %d", cfg.Import.MaxItemsPerRequest)
	}
}

func TestNormalizedParentLockUnknown(t *testing.T) {
	cfg := ImportConfig{ParentLock: "zookeeper"}
	if got := cfg.NormalizedParentLock(); got != constants.ParentLockNone {
		t.Fatalf("unknown lock mode want none got %s", got)
	}
}
