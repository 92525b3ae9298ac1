//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	sharedMongo     *MongoDBContainer
	sharedMongoErr  error
	sharedMongoOnce sync.Once
	sharedMu        sync.RWMutex
)

// GetSharedMongoDB starts the package's MongoDB container on first use and returns it afterwards.
func GetSharedMongoDB(ctx context.Context) (*MongoDBContainer, error) {
	sharedMongoOnce.Do(func() {
		sharedMu.Lock()
		defer sharedMu.Unlock()
		sharedMongo, sharedMongoErr = SetupMongoDB(ctx)
	})

	sharedMu.RLock()
	defer sharedMu.RUnlock()
	return sharedMongo, sharedMongoErr
}

// CleanupSharedMongoDB terminates the shared container.
func CleanupSharedMongoDB(ctx context.Context) error {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedMongo.Cleanup(ctx)
}

// SetupTestMainWithMongoDB runs m against one MongoDB container shared by the package.
//
//	func TestMain(m *testing.M) {
//		os.Exit(testutil.SetupTestMainWithMongoDB(context.Background(), m))
//	}
func SetupTestMainWithMongoDB(ctx context.Context, m *testing.M) int {
	if _, err := GetSharedMongoDB(ctx); err != nil {
		panic(err)
	}

	code := m.Run()

	if err := CleanupSharedMongoDB(ctx); err != nil {
		// Docker reaps the container anyway
		fmt.Fprintf(os.Stderr, "warning: cleanup shared MongoDB container: %v\n", err)
	}
	return code
}

// GetSharedContainerURI returns the URI of the shared MongoDB container.
// Panics if the container is not initialized.
func GetSharedContainerURI() string {
	sharedMu.RLock()
	defer sharedMu.RUnlock()

	if sharedMongo == nil {
		panic("shared MongoDB container not initialized - call GetSharedMongoDB first")
	}
	return sharedMongo.URI
}

var dbNameReplacer = strings.NewReplacer("/", "_", `\`, "_", " ", "_", ".", "_", "$", "_", `"`, "_")

// SanitizeDBName turns a test name into a unique MongoDB database name.
func SanitizeDBName(testName string) string {
	name := dbNameReplacer.Replace(testName)
	if len(name) > 50 {
		name = name[:50]
	}
	return fmt.Sprintf("%s_%d", name, time.Now().UnixNano()%1000000)
}
