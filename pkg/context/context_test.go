package context_test

import (
	"context"
	"testing"

	"github.com/yeisme/filevault/pkg/cache"
	fvctx "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/storage"
)

func TestStorageManager(t *testing.T) {
	ctx := context.Background()

	if fvctx.GetManager(ctx) != nil || fvctx.GetDBClient(ctx) != nil || fvctx.GetCache(ctx) != nil {
		t.Fatal("empty context returned storage")
	}

	c := cache.NewCache(nil, "fv")
	mgr := &storage.Manager{Cache: c}
	ctx = fvctx.WithStorageManager(ctx, mgr)

	if fvctx.GetManager(ctx) != mgr {
		t.Fatal("manager not stored")
	}

	if fvctx.GetCache(ctx) != c {
		t.Fatal("cache getter returned wrong value")
	}

	if fvctx.GetS3Client(ctx) != nil || fvctx.GetMQClient(ctx) != nil || fvctx.GetKVClient(ctx) != nil {
		t.Fatal("unset clients should be nil")
	}
}
