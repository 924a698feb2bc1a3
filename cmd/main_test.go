package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func cliEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STUDYNOTES_CONFIG", "")
	t.Setenv("STORE_MODE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OTEL_ENABLED", "false")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, outputFormat = "", "table"
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLessonsAddListShowDelete(t *testing.T) {
	cliEnv(t)

	out, err := runCLI(t, "lessons", "add", "--title", "Cells", "--notes", "Mitochondria", "--image", "a.png", "-o", "json")
	if err != nil {
		t.Fatalf("add: %v (%s)", err, out)
	}
	var created struct {
		Lesson struct {
			ID        string   `json:"id"`
			Title     string   `json:"title"`
			ImageURLs []string `json:"imageUrls"`
		} `json:"lesson"`
	}
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode add output: %v (%s)", err, out)
	}
	id := created.Lesson.ID
	if id == "" || created.Lesson.Title != "Cells" || len(created.Lesson.ImageURLs) != 1 {
		t.Fatalf("unexpected lesson: %+v", created.Lesson)
	}

	out, err = runCLI(t, "lessons", "list")
	if err != nil || !strings.Contains(out, id) || !strings.Contains(out, "TITLE") {
		t.Fatalf("list: err=%v out=%s", err, out)
	}

	out, err = runCLI(t, "lessons", "edit", id, "--notes", "ATP synthesis")
	if err != nil || !strings.Contains(out, "ATP synthesis") {
		t.Fatalf("edit: err=%v out=%s", err, out)
	}

	if _, err = runCLI(t, "lessons", "delete", id); err == nil {
		t.Fatalf("delete without --yes should fail")
	}
	if _, err = runCLI(t, "lessons", "show", id); err != nil {
		t.Fatalf("lesson should survive an unconfirmed delete: %v", err)
	}
	if out, err = runCLI(t, "lessons", "delete", id, "--yes"); err != nil {
		t.Fatalf("delete: %v (%s)", err, out)
	}
	if _, err = runCLI(t, "lessons", "show", id); err == nil {
		t.Fatalf("show after delete should fail")
	}
}

func TestLessonsEditRequiresAChange(t *testing.T) {
	cliEnv(t)
	if _, err := runCLI(t, "lessons", "edit", "whatever"); err == nil || !strings.Contains(err.Error(), "nothing to change") {
		t.Fatalf("want nothing-to-change error, got %v", err)
	}
}

func TestGenerateCommandsNeedAKey(t *testing.T) {
	cliEnv(t)
	if _, err := runCLI(t, "notes", "generate", "photosynthesis"); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("want missing key error, got %v", err)
	}
}
