package main

import (
	"context"
	"database/sql"
	"embed"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/icddrb/eregistry/internal/syncconfig"
	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: dbtool <migrate|flags|kv-smoke> [args]")
	}

	switch os.Args[1] {
	case "migrate":
		migrate(os.Args[2:])
	case "flags":
		flags(os.Args[2:])
	case "kv-smoke":
		kvSmoke(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

// parseURL reads --url, falling back to the DATABASE_URL / DB_* environment.
func parseURL(name string, args []string) (string, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", "", "postgres connection string")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if url == "" {
		url = syncconfig.DBDSNFromEnv()
	}
	return url, fs.Args(), nil
}

func migrate(args []string) {
	url, rest, err := parseURL("migrate", args)
	if err != nil {
		fatal(err)
	}
	direction := "up"
	if len(rest) > 0 {
		direction = rest[0]
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		fatal(err)
	}
	defer db.Close()

	if err := runMigrations(db, direction); err != nil {
		fatal(err)
	}
	fmt.Printf("[migrate] OK: direction=%s\n", direction)
}

func runMigrations(db *sql.DB, direction string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch direction {
	case "up":
		return goose.Up(db, "migrations")
	case "down":
		return goose.Down(db, "migrations")
	case "status":
		return goose.Status(db, "migrations")
	default:
		return fmt.Errorf("unknown migrate direction: %s", direction)
	}
}

type flagsCommand struct {
	action   string
	resource loadflag.ResourceType
}

func parseFlagsCommand(args []string) (flagsCommand, error) {
	if len(args) == 0 {
		return flagsCommand{}, fmt.Errorf("usage: dbtool flags [--url ...] <list|enable TYPE|clear TYPE|clear-all>")
	}
	cmd := flagsCommand{action: args[0]}
	switch cmd.action {
	case "list", "clear-all":
		if len(args) != 1 {
			return flagsCommand{}, fmt.Errorf("%s takes no arguments", cmd.action)
		}
	case "enable", "clear":
		if len(args) != 2 {
			return flagsCommand{}, fmt.Errorf("%s needs exactly one resource type", cmd.action)
		}
		rt, err := loadflag.ParseResourceType(args[1])
		if err != nil {
			return flagsCommand{}, fmt.Errorf("%w: %s", err, args[1])
		}
		cmd.resource = rt
	default:
		return flagsCommand{}, fmt.Errorf("unknown flags action: %s", cmd.action)
	}
	return cmd, nil
}

func runFlagsCommand(ctx context.Context, store *loadflag.Store, cmd flagsCommand, out io.Writer) error {
	switch cmd.action {
	case "enable":
		return store.Enable(ctx, cmd.resource)
	case "clear":
		return store.Clear(ctx, cmd.resource)
	case "clear-all":
		return store.ClearAll(ctx)
	}
	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, rt := range loadflag.AllResourceTypes() {
		state := "off"
		if snapshot[rt] {
			state = "on"
		}
		if _, err := fmt.Fprintf(out, "%-24s %-32s %s\n", rt, loadflag.Key(rt), state); err != nil {
			return err
		}
	}
	return nil
}

func flags(args []string) {
	url, rest, err := parseURL("flags", args)
	if err != nil {
		fatal(err)
	}
	cmd, err := parseFlagsCommand(rest)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer pool.Close()

	if err := runFlagsCommand(ctx, loadflag.NewStore(kv.NewPGStore(pool)), cmd, os.Stdout); err != nil {
		fatal(err)
	}
	if cmd.action != "list" {
		fmt.Printf("[flags] OK: action=%s resource=%s\n", cmd.action, cmd.resource)
	}
}

func kvSmoke(args []string) {
	url, _, err := parseURL("kv-smoke", args)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer pool.Close()

	if err := kvRoundTrip(ctx, kv.NewPGStore(pool)); err != nil {
		fatal(err)
	}
	fmt.Println("[kv-smoke] OK")
}

// kvRoundTrip writes, reads back, overwrites and deletes a scratch key.
func kvRoundTrip(ctx context.Context, store kv.Store) error {
	key := fmt.Sprintf("smoke.%d", time.Now().UnixNano())
	defer func() { _ = store.Delete(context.Background(), key) }()

	if err := store.Put(ctx, key, []byte("a")); err != nil {
		return err
	}
	if err := expectValue(ctx, store, key, "a"); err != nil {
		return err
	}
	if err := store.Put(ctx, key, []byte("b")); err != nil {
		return err
	}
	if err := expectValue(ctx, store, key, "b"); err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil {
		return err
	}
	if _, ok, err := store.Get(ctx, key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("expected %s to be deleted", key)
	}
	return nil
}

func expectValue(ctx context.Context, store kv.Store, key string, want string) error {
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || string(got) != want {
		return fmt.Errorf("expected %s=%q, got ok=%v value=%q", key, want, ok, got)
	}
	return nil
}

func fatal(err error) {
	if err == nil {
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
