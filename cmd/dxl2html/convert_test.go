package main

// Notes:
// - discoverFiles: tests directory walking and extension filtering
// - validateDXLExtension: tests accepted extensions
// - resolveWorkers: tests auto and clamped worker counts
// - mergeFlags: tests CLI-over-config precedence
// - runConvert: tests an end-to-end batch against a temp tree

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Input Discovery
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<document/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("a.xml")
	mustWrite("sub/b.dxl")
	mustWrite("sub/notes.txt")
	mustWrite("c.html")

	files, err := discoverFiles(dir)
	if err != nil {
		t.Fatalf("discoverFiles() error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	for _, f := range files {
		ext := filepath.Ext(f)
		if ext != ".xml" && ext != ".dxl" {
			t.Errorf("unexpected file discovered: %s", f)
		}
	}
}

func TestDiscoverFilesSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.xml")
	if err := os.WriteFile(path, []byte("<document/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := discoverFiles(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("files = %v", files)
	}

	bad := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(bad, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := discoverFiles(bad); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("error = %v, want ErrInvalidExtension", err)
	}
}

// ---------------------------------------------------------------------------
// TestResolveWorkers - Worker Count Resolution
// ---------------------------------------------------------------------------

func TestResolveWorkers(t *testing.T) {
	t.Parallel()

	if got := resolveWorkers(4, 100); got != 4 {
		t.Errorf("explicit workers = %d, want 4", got)
	}
	if got := resolveWorkers(8, 2); got != 2 {
		t.Errorf("workers should clamp to job count, got %d", got)
	}
	if got := resolveWorkers(0, 100); got < 1 {
		t.Errorf("auto workers = %d, want >= 1", got)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	if err := validateWorkers(0); err != nil {
		t.Errorf("0 should be valid (auto): %v", err)
	}
	if err := validateWorkers(-1); !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("negative workers: %v", err)
	}
	if err := validateWorkers(MaxWorkers + 1); !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("excessive workers: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - Flag Precedence
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Database.Title = "FromConfig"
	cfg.Output.Markdown = false
	cfg.Output.JSON = true

	flags := &convertFlags{
		dbTitle: "FromFlag",
		output:  "custom-out",
		outputs: outputFlags{markdown: true, noJSON: true},
		render:  renderFlags{font: "Lato"},
	}
	mergeFlags(flags, cfg)

	if cfg.Database.Title != "FromFlag" {
		t.Errorf("Database.Title = %q", cfg.Database.Title)
	}
	if cfg.Output.DefaultDir != "custom-out" {
		t.Errorf("Output.DefaultDir = %q", cfg.Output.DefaultDir)
	}
	if !cfg.Output.Markdown {
		t.Error("markdown flag not merged")
	}
	if cfg.Output.JSON {
		t.Error("no-json flag not merged")
	}
	if cfg.Render.FontFamily != "Lato" {
		t.Errorf("Render.FontFamily = %q", cfg.Render.FontFamily)
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert - End-to-End Batch
// ---------------------------------------------------------------------------

const testDXL = `<?xml version="1.0" encoding="utf-8"?>
<document xmlns="http://www.lotus.com/dxl" form="Memo">
<noteinfo noteid="8fa" unid="RUN00000000000000000000000000001">
<created><datetime>20240305T143000,00</datetime></created>
</noteinfo>
<item name="Subject"><text>Batch Test</text></item>
<item name="Body"><richtext>
<pardef id="1"/>
<par def="1">hello batch</par>
</richtext></item>
</document>`

func TestRunConvert(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inDir, "doc.xml"), []byte(testDXL), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Log: zap.NewNop()}
	flags := &convertFlags{output: outDir, dbTitle: "TestDB"}

	if err := runConvert(context.Background(), []string{inDir}, flags, env); err != nil {
		t.Fatalf("runConvert() error: %v\nstderr: %s", err, stderr.String())
	}

	htmlPath := filepath.Join(outDir, "TestDB", "Memo", "uncategorized",
		"Doc_20240305_Batch_Test", "Doc_20240305_Batch_Test.html")
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("expected output missing: %v", err)
	}
	if !strings.Contains(string(data), "hello batch") {
		t.Error("rendered HTML missing body text")
	}

	jsonPath := strings.TrimSuffix(htmlPath, ".html") + ".normalized.json"
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("JSON output missing: %v", err)
	}
}

func TestRunConvertInitConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "starter")

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Log: zap.NewNop()}
	flags := &convertFlags{initConfig: true, common: commonFlags{config: path}}

	if err := runConvert(context.Background(), nil, flags, env); err != nil {
		t.Fatalf("runConvert() error: %v", err)
	}
	if _, err := LoadConfig(path + ".yaml"); err != nil {
		t.Fatalf("starter config does not load: %v", err)
	}
}

func TestPrintResultsRetry(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Log: zap.NewNop()}

	results := []threadResult{
		{Path: "a.xml", Try: 2, Err: errors.New("boom")},
	}
	if failed := printResults(results, false, false, env); failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if !strings.Contains(stderr.String(), "(try 2)") {
		t.Errorf("stderr = %q, want retry attempt in failure line", stderr.String())
	}
}

func TestRunConvertNoInput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr, Log: zap.NewNop()}

	err := runConvert(context.Background(), nil, &convertFlags{}, env)
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v, want ErrNoInput", err)
	}
}
