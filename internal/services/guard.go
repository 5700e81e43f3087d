package services

import (
	"context"
	"time"

	apperrors "moneyflow/internal/errors"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds how many readers may hold the ledger at once. A writer
// acquires the whole weight and therefore excludes every reader.
const maxReaders = 1 << 16

// LedgerGuard is a context-aware reader/writer gate over the whole ledger.
//
// Writers (anything that moves a balance or removes a referenced entity)
// hold it exclusively; readers share it. The underlying semaphore is FIFO,
// so a waiting writer is not starved by a stream of readers.
type LedgerGuard struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewLedgerGuard creates a guard whose acquisitions give up after timeout.
// A non-positive timeout waits for as long as the caller's context allows.
func NewLedgerGuard(timeout time.Duration) *LedgerGuard {
	return &LedgerGuard{sem: semaphore.NewWeighted(maxReaders), timeout: timeout}
}

// Read acquires shared access. The returned func releases it.
func (g *LedgerGuard) Read(ctx context.Context) (func(), error) {
	return g.acquire(ctx, 1)
}

// Write acquires exclusive access. The returned func releases it.
func (g *LedgerGuard) Write(ctx context.Context) (func(), error) {
	return g.acquire(ctx, maxReaders)
}

func (g *LedgerGuard) acquire(ctx context.Context, n int64) (func(), error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.sem.Acquire(ctx, n); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrLedgerBusy, err)
	}
	return func() { g.sem.Release(n) }, nil
}

// withRead runs fn while holding shared access.
func (g *LedgerGuard) withRead(ctx context.Context, fn func() error) error {
	release, err := g.Read(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// withWrite runs fn while holding exclusive access.
func (g *LedgerGuard) withWrite(ctx context.Context, fn func() error) error {
	release, err := g.Write(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
