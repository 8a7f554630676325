package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewApp_Commands(t *testing.T) {
	app := newApp()

	for _, name := range []string{"seed", "drop", "status"} {
		if app.Command(name) == nil {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestSeed_RequiresFile(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run([]string{"seeder", "seed"})
	if err == nil || !strings.Contains(err.Error(), "file") {
		t.Fatalf("expected missing --file error, got %v", err)
	}
}

func TestSeed_MissingFile(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"seeder", "seed", "--file", "/nonexistent/kb.yaml"})
	if err == nil || !strings.Contains(err.Error(), "read seed file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestDrop_RequiresConfirmation(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"seeder", "drop"})
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
