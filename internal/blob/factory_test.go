package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("PLATECORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver: %s", store.Driver())
	}

	t.Setenv("PLATECORE_BLOB_DRIVER", "fs")
	t.Setenv("PLATECORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver: %s", store.Driver())
	}

	t.Setenv("PLATECORE_BLOB_DRIVER", "carrier-pigeon")
	if _, err := Open(ctx); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv("PLATECORE_BLOB_DRIVER", "")
	t.Setenv("PLATECORE_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver: %s", store.Driver())
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("PLATECORE_BLOB_DRIVER", "s3")
	t.Setenv("PLATECORE_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error when bucket is unset")
	}
}
