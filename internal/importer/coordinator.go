// Package importer coordinates AASX package imports: claiming the
// package, decoding its blob, and applying the decoded environment as
// one atomic merge, with bounded retry on transient failures.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"

	"github.com/industrialdt/aashub/internal/aasx"
	apperrors "github.com/industrialdt/aashub/internal/platform/errors"
	"github.com/industrialdt/aashub/internal/platform/timeouts"
	"github.com/industrialdt/aashub/internal/storage"
)

// Store is the persistence surface the coordinator needs.
type Store interface {
	storage.ImportStore
	GetPackage(ctx context.Context, id string) (storage.PackageRecord, error)
	GetPackageBlob(ctx context.Context, id string) ([]byte, error)
}

// Option configures coordinator behavior.
type Option func(*Coordinator)

// WithMaxAttempts bounds how often a transient apply failure is retried
// within one import request.
func WithMaxAttempts(attempts uint) Option {
	return func(c *Coordinator) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLockTimeout overrides how long a claim may sit before another
// import reclaims it.
func WithLockTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.lockTimeout = timeout
		}
	}
}

// Coordinator serializes imports per package and drives each one
// through claim, decode, and atomic apply.
type Coordinator struct {
	store   Store
	decoder aasx.Decoder

	maxAttempts uint
	lockTimeout time.Duration
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a coordinator over the given store and decoder.
func New(store Store, decoder aasx.Decoder, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		decoder:     decoder,
		maxAttempts: 3,
		lockTimeout: timeouts.ImportLock,
		now:         time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Import runs one import attempt for the package. At most one import
// per package runs at a time; a second concurrent call fails fast with
// ErrImportInFlight instead of queueing. Validation failures mark the
// package failed; transient storage failures retry with backoff before
// doing the same.
func (c *Coordinator) Import(ctx context.Context, packageID string) (storage.ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ImportResult{}, err
	}
	if packageID == "" {
		return storage.ImportResult{}, fmt.Errorf("package id is required")
	}

	ctx, span := otel.Tracer("importer").Start(ctx, "importer.Import")
	defer span.End()

	lock := c.packageLock(packageID)
	if !lock.TryLock() {
		return storage.ImportResult{}, storage.ErrImportInFlight
	}
	defer lock.Unlock()

	startedAt := c.now()
	if _, err := c.store.ClaimImport(ctx, packageID, startedAt, startedAt.Add(-c.lockTimeout)); err != nil {
		span.RecordError(err)
		return storage.ImportResult{}, fmt.Errorf("claim package %s: %w", packageID, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeouts.ImportRequest)
	result, err := c.runImport(runCtx, packageID)
	cancel()
	if err != nil {
		span.RecordError(err)
		if failErr := c.store.FailImport(ctx, packageID, err.Error(), c.now()); failErr != nil {
			log.Printf("importer fail package_id=%s err=%v", packageID, failErr)
		}
		return storage.ImportResult{}, err
	}
	log.Printf("importer applied package_id=%s created=%d updated=%d",
		packageID, result.Created(), result.Updated())
	return result, nil
}

// Delete removes the package and cascade-retracts its entities. The
// per-package lock keeps it from racing an in-process import; the store
// rejects deletes against a package another process is importing, unless
// that claim has outlived the lock timeout.
func (c *Coordinator) Delete(ctx context.Context, packageID string) (storage.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.DeleteResult{}, err
	}
	if packageID == "" {
		return storage.DeleteResult{}, fmt.Errorf("package id is required")
	}

	lock := c.packageLock(packageID)
	if !lock.TryLock() {
		return storage.DeleteResult{}, storage.ErrDeleteImporting
	}
	defer lock.Unlock()

	at := c.now()
	result, err := c.store.DeletePackage(ctx, packageID, at, at.Add(-c.lockTimeout))
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("delete package %s: %w", packageID, err)
	}
	log.Printf("importer deleted package_id=%s shells=%d submodels=%d concepts=%d",
		packageID, result.RemovedShells, result.RemovedSubmodels, result.RemovedConcepts)
	return result, nil
}

func (c *Coordinator) runImport(ctx context.Context, packageID string) (storage.ImportResult, error) {
	record, err := c.store.GetPackage(ctx, packageID)
	if err != nil {
		return storage.ImportResult{}, fmt.Errorf("load package %s: %w", packageID, err)
	}
	blob, err := c.store.GetPackageBlob(ctx, packageID)
	if err != nil {
		return storage.ImportResult{}, fmt.Errorf("load package blob %s: %w", packageID, err)
	}

	env, err := c.decoder.Decode(ctx, blob)
	if err != nil {
		return storage.ImportResult{}, fmt.Errorf("decode package %s: %w", packageID, err)
	}

	operation := func() (storage.ImportResult, error) {
		result, err := c.store.ApplyImport(ctx, storage.ImportApply{
			PackageID:   packageID,
			Filename:    record.Filename,
			Environment: env,
			AppliedAt:   c.now(),
		})
		if err != nil {
			if !apperrors.CodeOf(err).Retryable() && apperrors.CodeOf(err) != apperrors.CodeUnknown {
				return storage.ImportResult{}, backoff.Permanent(err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return storage.ImportResult{}, backoff.Permanent(err)
			}
			log.Printf("importer apply retry package_id=%s err=%v", packageID, err)
			return storage.ImportResult{}, err
		}
		return result, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 100 * time.Millisecond
	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxAttempts))
	if err != nil {
		return storage.ImportResult{}, fmt.Errorf("apply package %s: %w", packageID, err)
	}
	return result, nil
}

func (c *Coordinator) packageLock(packageID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[packageID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[packageID] = lock
	}
	return lock
}
