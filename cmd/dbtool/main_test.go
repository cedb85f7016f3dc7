package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
)

func TestParseFlagsCommand(t *testing.T) {
	cmd, err := parseFlagsCommand([]string{"enable", "programs"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cmd.action != "enable" || cmd.resource != loadflag.ResourcePrograms {
		t.Fatalf("cmd=%+v", cmd)
	}

	if cmd, err := parseFlagsCommand([]string{"list"}); err != nil || cmd.action != "list" {
		t.Fatalf("cmd=%+v err=%v", cmd, err)
	}

	for _, args := range [][]string{
		nil,
		{"list", "x"},
		{"clear-all", "x"},
		{"enable"},
		{"clear", "a", "b"},
		{"nope"},
	} {
		if _, err := parseFlagsCommand(args); err == nil {
			t.Fatalf("args=%v expected error", args)
		}
	}

	_, err = parseFlagsCommand([]string{"clear", "NOPE"})
	if !errors.Is(err, loadflag.ErrUnknownResourceType) {
		t.Fatalf("err=%v", err)
	}
}

func TestRunFlagsCommand(t *testing.T) {
	ctx := context.Background()
	store := loadflag.NewStore(kv.NewMemoryStore())

	if err := runFlagsCommand(ctx, store, flagsCommand{action: "enable", resource: loadflag.ResourcePrograms}, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
	var out bytes.Buffer
	if err := runFlagsCommand(ctx, store, flagsCommand{action: "list"}, &out); err != nil {
		t.Fatalf("err=%v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(loadflag.AllResourceTypes()) {
		t.Fatalf("lines=%d", len(lines))
	}
	var programs string
	for _, line := range lines {
		if strings.HasPrefix(line, "PROGRAMS ") {
			programs = line
		}
	}
	if !strings.HasSuffix(programs, " on") || !strings.Contains(programs, loadflag.Key(loadflag.ResourcePrograms)) {
		t.Fatalf("programs=%q", programs)
	}

	if err := runFlagsCommand(ctx, store, flagsCommand{action: "clear", resource: loadflag.ResourcePrograms}, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok, _ := store.IsEnabled(ctx, loadflag.ResourcePrograms); ok {
		t.Fatal("expected cleared")
	}

	_ = store.Enable(ctx, loadflag.ResourceUnionUsers)
	if err := runFlagsCommand(ctx, store, flagsCommand{action: "clear-all"}, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok, _ := store.IsEnabled(ctx, loadflag.ResourceUnionUsers); ok {
		t.Fatal("expected cleared")
	}
}

func TestKVRoundTrip(t *testing.T) {
	store := kv.NewMemoryStore()
	if err := kvRoundTrip(context.Background(), store); err != nil {
		t.Fatalf("err=%v", err)
	}
}

type failingPut struct {
	*kv.MemoryStore
}

func (failingPut) Put(context.Context, string, []byte) error { return errors.New("boom") }

func TestKVRoundTrip_PutError(t *testing.T) {
	if err := kvRoundTrip(context.Background(), failingPut{kv.NewMemoryStore()}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	url, rest, err := parseURL("flags", []string{"list"})
	if err != nil || url != "postgres://env" || len(rest) != 1 || rest[0] != "list" {
		t.Fatalf("url=%q rest=%v err=%v", url, rest, err)
	}
	url, rest, err = parseURL("flags", []string{"--url", "postgres://flag", "enable", "PROGRAMS"})
	if err != nil || url != "postgres://flag" || len(rest) != 2 {
		t.Fatalf("url=%q rest=%v err=%v", url, rest, err)
	}
	if _, _, err := parseURL("flags", []string{"--nope"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, "migrations/00001_sync_kv.sql")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	s := string(b)
	if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "sync.kv_entries") {
		t.Fatalf("migration=%s", s)
	}
}
