package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/icddrb/eregistry/internal/syncconfig"
	"github.com/icddrb/eregistry/internal/syncruntime"
	"github.com/icddrb/eregistry/pkg/uievent"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile, err := syncconfig.LoadProfile("")
	if err != nil {
		log.Fatal(err)
	}
	remote, err := syncconfig.DHIS2FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	store, locker, closeStore, err := syncruntime.OpenKV(ctx, syncconfig.DBDSNFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	logger := log.Default()
	rt, err := syncruntime.New(syncruntime.Options{
		KV:      store,
		DHIS2:   remote,
		Profile: profile,
		Events: uievent.PublisherFunc(func(e uievent.Event) {
			if e.Type == uievent.TypeLoadingMessage {
				logger.Printf("sync progress: run_id=%s message=%q", e.RunID, e.Message)
				return
			}
			logger.Printf("sync event: run_id=%s type=%s phase=%s", e.RunID, e.Type, e.Phase)
		}),
		Logger: logger,
		Locker: locker,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer rt.Close()

	seeded, err := rt.Bootstrap(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if seeded {
		logger.Printf("load flags seeded from profile: root_level=%d depth=%d", profile.RootLevel, profile.Depth)
	}

	interval := syncconfig.SyncInterval()
	logger.Printf("syncd started: base_url=%s interval=%s", remote.BaseURL, interval)
	if err := syncruntime.RunLoop(ctx, rt.Orchestrator, interval, logger); err != nil {
		log.Fatal(err)
	}
	logger.Printf("syncd stopped")
}
