package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	dxl2html "github.com/alnah/go-dxl2html"
	"github.com/alnah/go-dxl2html/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadInput          = errors.New("failed to read input file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .xml or .dxl extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// MaxWorkers caps the parallel worker count.
const MaxWorkers = 64

// Environment bundles the process-level dependencies so tests can
// substitute writers.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.Logger
}

// parsedInput is one input file after the parse phase.
type parsedInput struct {
	Path string
	DXL  []byte
	Doc  *dxl2html.NormalizedDocument
	Err  error
}

// threadResult is the outcome of converting one thread root.
type threadResult struct {
	Path      string
	OutputDir string
	UNID      string
	Skipped   bool
	Try       int // attempt number when a checkpoint file tracks retries
	Err       error
	Duration  time.Duration
}

// runConvert orchestrates a batch: parse every input, link response
// threads, then bind and render each root document.
func runConvert(ctx context.Context, args []string, flags *convertFlags, env *Environment) error {
	if flags.initConfig {
		name := flags.common.config
		if name == "" {
			name = "dxl2html"
		}
		path := name
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			path += ".yaml"
		}
		if err := WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Wrote %s\n", path)
		return nil
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	if flags.workers == 0 && envCfg.Workers > 0 {
		flags.workers = envCfg.Workers
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	cfg := DefaultConfig()
	if configName != "" {
		loaded, err := LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	inputPath, err := resolveInputPath(args, cfg)
	if err != nil {
		return err
	}
	outputRoot := cfg.Output.DefaultDir
	if outputRoot == "" {
		outputRoot = DefaultOutputDir
	}

	files, err := discoverFiles(inputPath)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no DXL files found in %s", inputPath)
	}

	var progress *progressLog
	if cfg.Progress.File != "" {
		progress, err = openProgressLog(cfg.Progress.File)
		if err != nil {
			return err
		}
		defer func() { _ = progress.close() }()
	}

	svc := dxl2html.New(
		dxl2html.WithLogger(env.Log),
		dxl2html.WithRenderOptions(dxl2html.RenderOptions{
			FontFamily:       cfg.Render.FontFamily,
			LinkRedirectBase: cfg.Render.LinkRedirectBase,
		}),
		dxl2html.WithMarkdown(cfg.Output.Markdown),
		dxl2html.WithBodyItem(cfg.Input.BodyItem),
	)

	workers := resolveWorkers(flags.workers, len(files))

	parsed := parsePhase(ctx, svc, files, workers)

	var docs []*dxl2html.NormalizedDocument
	byUNID := map[string]*parsedInput{}
	var failed int
	for i := range parsed {
		p := &parsed[i]
		if p.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", p.Path, p.Err)
			continue
		}
		docs = append(docs, p.Doc)
		byUNID[p.Doc.UNID] = p
	}

	roots := dxl2html.BuildThreads(docs)
	env.Log.Info("threads linked",
		zap.Int("documents", len(docs)),
		zap.Int("roots", len(roots)))

	results := renderPhase(ctx, svc, roots, byUNID, cfg, outputRoot, progress, workers)

	failed += printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *Config) {
	if flags.output != "" {
		cfg.Output.DefaultDir = flags.output
	}
	if flags.dbTitle != "" {
		cfg.Database.Title = flags.dbTitle
	}
	if flags.bodyItem != "" {
		cfg.Input.BodyItem = flags.bodyItem
	}
	if flags.progress != "" {
		cfg.Progress.File = flags.progress
	}
	if flags.render.font != "" {
		cfg.Render.FontFamily = flags.render.font
	}
	if flags.render.linkBase != "" {
		cfg.Render.LinkRedirectBase = flags.render.linkBase
	}
	if flags.outputs.markdown {
		cfg.Output.Markdown = true
	}
	if flags.outputs.json {
		cfg.Output.JSON = true
	}
	if flags.outputs.noJSON {
		cfg.Output.JSON = false
	}
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, MaxWorkers)
	}
	return nil
}

// resolveWorkers turns the flag value into an effective worker count.
func resolveWorkers(flagWorkers, jobs int) int {
	n := flagWorkers
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// discoverFiles finds all DXL files to convert, sorted by WalkDir's
// lexical order so batches are deterministic.
func discoverFiles(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateDXLExtension(inputPath); err != nil {
			return nil, err
		}
		return []string{inputPath}, nil
	}

	var files []string
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext == ".xml" || ext == ".dxl" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// validateDXLExtension checks that the file has a .xml or .dxl extension.
func validateDXLExtension(path string) error {
	ext := filepath.Ext(path)
	if ext != ".xml" && ext != ".dxl" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// parsePhase reads and parses every input concurrently. Parsing does
// not touch the output tree, so every document can be in memory before
// threads are linked.
func parsePhase(ctx context.Context, svc *dxl2html.Service, files []string, workers int) []parsedInput {
	results := make([]parsedInput, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = parseOne(ctx, svc, files[idx])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func parseOne(ctx context.Context, svc *dxl2html.Service, path string) parsedInput {
	result := parsedInput{Path: path}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	data, err := os.ReadFile(path) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadInput, err)
		return result
	}
	result.DXL = data
	result.Doc, result.Err = svc.Parse(data)
	return result
}

// renderPhase binds and renders each thread root concurrently. A root's
// responses are bound into the root's folder so relative attachment
// links inside the combined page stay valid.
func renderPhase(ctx context.Context, svc *dxl2html.Service, roots []*dxl2html.NormalizedDocument,
	byUNID map[string]*parsedInput, cfg *Config, outputRoot string,
	progress *progressLog, workers int) []threadResult {

	results := make([]threadResult, len(roots))
	var wg sync.WaitGroup
	jobs := make(chan int, len(roots))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = renderThread(ctx, svc, roots[idx], byUNID, cfg, outputRoot)
				if progress != nil && !results[idx].Skipped {
					_ = progress.record(roots[idx].UNID, results[idx].Path, results[idx].Err)
					results[idx].Try = progress.tries(roots[idx].UNID)
				}
			}
		}()
	}
	for i, root := range roots {
		if progress.done(root.UNID) {
			results[i] = threadResult{
				Path:    sourcePath(byUNID, root),
				UNID:    root.UNID,
				Skipped: true,
			}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func sourcePath(byUNID map[string]*parsedInput, doc *dxl2html.NormalizedDocument) string {
	if p, ok := byUNID[doc.UNID]; ok {
		return p.Path
	}
	return ""
}

// renderThread converts one root document plus its responses into a
// single output folder.
func renderThread(ctx context.Context, svc *dxl2html.Service, root *dxl2html.NormalizedDocument,
	byUNID map[string]*parsedInput, cfg *Config, outputRoot string) threadResult {

	start := time.Now()
	result := threadResult{Path: sourcePath(byUNID, root), UNID: root.UNID}
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	rel := dxl2html.ResolveOutputPath(cfg.Database.Title, root.Form, root.Categories, root.Created, root.Title)
	outDir := filepath.Join(outputRoot, filepath.FromSlash(rel))
	result.OutputDir = outDir
	if err := fileutil.EnsureDir(outDir); err != nil {
		result.Err = err
		return result
	}

	// Bind the whole thread into the root's folder.
	for _, doc := range flattenThread(root) {
		src, ok := byUNID[doc.UNID]
		if !ok {
			continue
		}
		if _, err := svc.Bind(doc, src.DXL, outDir); err != nil {
			result.Err = err
			return result
		}
	}

	page, err := svc.RenderThread(root)
	if err != nil {
		result.Err = err
		return result
	}

	baseName := dxl2html.DocFolderName(root.Created, root.Title)
	if err := fileutil.WriteFileAtomic(filepath.Join(outDir, baseName+".html"), []byte(page)); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		return result
	}

	if cfg.Output.Markdown {
		if mdPage, err := dxl2html.RenderMarkdown(page); err == nil {
			if err := fileutil.WriteFileAtomic(filepath.Join(outDir, baseName+".md"), []byte(mdPage)); err != nil {
				result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
				return result
			}
		}
	}

	if cfg.Output.JSON {
		data, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			result.Err = err
			return result
		}
		if err := fileutil.WriteFileAtomic(filepath.Join(outDir, baseName+".normalized.json"), data); err != nil {
			result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
			return result
		}
	}
	return result
}

// flattenThread lists a root and all its transitive responses.
func flattenThread(root *dxl2html.NormalizedDocument) []*dxl2html.NormalizedDocument {
	out := []*dxl2html.NormalizedDocument{root}
	for _, resp := range root.Responses {
		out = append(out, flattenThread(resp)...)
	}
	return out
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []threadResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed, skipped int

	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			if r.Try > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s (try %d): %v\n", r.Path, r.Try, r.Err)
			} else {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Path, r.Err)
			}
		case r.Skipped:
			skipped++
			if verbose {
				fmt.Fprintf(env.Stdout, "Skipped %s (already converted)\n", r.Path)
			}
		default:
			succeeded++
			if quiet {
				continue
			}
			if verbose {
				fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Path, r.OutputDir, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputDir)
			}
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d skipped, %d failed\n", succeeded, skipped, failed)
	}
	return failed
}
