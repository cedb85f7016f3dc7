package syncruntime

import (
	"context"
	"errors"
	"time"

	"github.com/icddrb/eregistry/modules/sync/services"
	"github.com/icddrb/eregistry/pkg/syncfault"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) error
	RunID() string
}

// RunLoop runs one cycle immediately and then one per interval until ctx is
// done. A failed cycle is logged and the loop keeps going; the next tick starts
// from whatever the flags and stored timestamps say.
func RunLoop(ctx context.Context, r cycleRunner, interval time.Duration, logger services.Logger) error {
	if interval <= 0 {
		return errors.New("syncruntime: interval must be positive")
	}
	runOnce(ctx, r, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runOnce(ctx, r, logger)
		}
	}
}

func runOnce(ctx context.Context, r cycleRunner, logger services.Logger) {
	started := time.Now()
	err := r.RunCycle(ctx)
	elapsed := time.Since(started).Round(time.Millisecond)
	switch {
	case err == nil:
		logger.Printf("sync tick: status=done run_id=%s elapsed=%s", r.RunID(), elapsed)
	case errors.Is(err, services.ErrSyncInProgress):
		logger.Printf("sync tick: status=skipped reason=in_progress")
	case syncfault.IsAuth(err):
		logger.Printf("sync tick: status=failed run_id=%s kind=%s elapsed=%s err=%v hint=check_dhis2_credentials", r.RunID(), syncfault.KindAuth, elapsed, err)
	default:
		if kind, ok := syncfault.KindOf(err); ok {
			logger.Printf("sync tick: status=failed run_id=%s kind=%s elapsed=%s err=%v", r.RunID(), kind, elapsed, err)
			return
		}
		logger.Printf("sync tick: status=failed run_id=%s elapsed=%s err=%v", r.RunID(), elapsed, err)
	}
}
