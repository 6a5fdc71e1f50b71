package storage

import (
	"context"
	"testing"

	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/models"
	"go.uber.org/zap"
)

func TestOpen_Memory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	stores, err := Open(ctx, &config.Config{StoreDriver: config.StoreDriverMemory}, true, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = stores.Close() }()

	if stores.Driver != config.StoreDriverMemory {
		t.Errorf("Driver = %q", stores.Driver)
	}
	if err := stores.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}

	task := &models.Task{Name: "Write report"}
	if err := stores.Tasks.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" {
		t.Error("Expected store to assign an id")
	}

	// ratelimit and cors share one config store
	if err := stores.Cors.SetCorsConfig(ctx, &models.CorsConfig{AllowedOrigins: "https://a.example"}); err != nil {
		t.Fatalf("SetCorsConfig: %v", err)
	}
	if rl, err := stores.Ratelimit.GetRatelimitConfig(ctx); err != nil || rl != nil {
		t.Errorf("Expected no ratelimit config, got %v, %v", rl, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), &config.Config{StoreDriver: "sqlite"}, false, zap.NewNop()); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
