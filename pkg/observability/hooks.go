// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about stage execution, cache operations, and
// database uploads.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import
// cycles and keeps the core packages free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStageHooks(&myStageHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Stage().OnStageStart(ctx, stage, state)
//	// ... run the stage ...
//	observability.Stage().OnStageComplete(ctx, stage, state, featureCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// StageHooks receives events from pipeline stage execution.
type StageHooks interface {
	// OnStageStart records the start of a pipeline stage for a state.
	OnStageStart(ctx context.Context, stage, state string)

	// OnStageComplete records the end of a stage with its output size.
	OnStageComplete(ctx context.Context, stage, state string, featureCount int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// UploadHooks receives events from database upload operations.
type UploadHooks interface {
	// OnUploadStart records the start of an upload to a collection.
	OnUploadStart(ctx context.Context, collection string)

	// OnUploadComplete records the end of an upload.
	OnUploadComplete(ctx context.Context, collection string, docCount int, duration time.Duration, err error)
}

// NoopStageHooks is a no-op implementation of StageHooks.
type NoopStageHooks struct{}

func (NoopStageHooks) OnStageStart(context.Context, string, string) {}
func (NoopStageHooks) OnStageComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopUploadHooks is a no-op implementation of UploadHooks.
type NoopUploadHooks struct{}

func (NoopUploadHooks) OnUploadStart(context.Context, string) {}
func (NoopUploadHooks) OnUploadComplete(context.Context, string, int, time.Duration, error) {
}

var (
	stageHooks  StageHooks  = NoopStageHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	uploadHooks UploadHooks = NoopUploadHooks{}
	hooksMu     sync.RWMutex
)

// SetStageHooks registers custom stage hooks.
// This should be called once at application startup before any pipeline runs.
func SetStageHooks(h StageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		stageHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetUploadHooks registers custom upload hooks.
// This should be called once at application startup before any uploads.
func SetUploadHooks(h UploadHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		uploadHooks = h
	}
}

// Stage returns the registered stage hooks.
func Stage() StageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return stageHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Upload returns the registered upload hooks.
func Upload() UploadHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return uploadHooks
}
