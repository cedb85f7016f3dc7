package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/icddrb/eregistry/internal/server"
	"github.com/icddrb/eregistry/internal/syncconfig"
	"github.com/icddrb/eregistry/internal/syncruntime"
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

	rt, err := syncruntime.New(syncruntime.Options{KV: store, DHIS2: remote, Profile: profile, Locker: locker})
	if err != nil {
		log.Fatal(err)
	}
	defer rt.Close()

	h, err := server.NewHandler(rt)
	if err != nil {
		log.Fatal(err)
	}

	addr := syncconfig.HTTPAddr()
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.Close()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
