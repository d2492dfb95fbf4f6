// Package collect finds EFI C sources and parses them in parallel, one
// parser per file.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/raymyers/ralph-ecc/pkg/config"
	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/parser"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of parsing one file. Err holds the parse error, if
// any; the profile keeps whatever was collected before and after it.
type Result struct {
	Path    string
	Profile *fragment.Profile
	Err     error
}

// Errors returns the syntax errors reported for the file
func (r Result) Errors() []*parser.ParseError {
	var synErr *parser.SyntaxError
	if errors.As(r.Err, &synErr) {
		return synErr.Errors
	}
	return nil
}

// Failed reports whether the file did not parse cleanly
func (r Result) Failed() bool {
	return r.Err != nil
}

// Options controls a Run
type Options struct {
	Workers   int
	Memoize   bool
	MaxErrors int
	Logger    *slog.Logger
}

// OptionsFrom derives run options from a configuration
func OptionsFrom(cfg config.Config, logger *slog.Logger) Options {
	return Options{
		Workers:   cfg.WorkerCount(),
		Memoize:   cfg.Memoize,
		MaxErrors: cfg.MaxErrors,
		Logger:    logger,
	}
}

// Discover returns the files below root selected by cfg, sorted
func Discover(root string, cfg config.Config) ([]string, error) {
	fsys := os.DirFS(root)
	globOpts := []doublestar.GlobOption{doublestar.WithFilesOnly(), doublestar.WithNoFollow()}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range cfg.Include {
		matched, err := doublestar.Glob(fsys, pattern, globOpts...)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, rel := range matched {
			if seen[rel] || !cfg.Selects(rel) {
				continue
			}
			seen[rel] = true
			files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run parses files with a bounded pool of workers and hands each result to
// fn, serially and in the order of files. A read failure or an error from
// fn stops the run; parse errors do not.
func Run(ctx context.Context, files []string, opts Options, fn func(Result) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)

	results := make([]Result, len(files))
	ready := make([]chan struct{}, len(files))
	for i := range ready {
		ready[i] = make(chan struct{})
	}
	next := make(chan int, workers*2)

	g.Go(func() error {
		defer close(next)
		for i := range files {
			select {
			case next <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range next {
				res, err := parseFile(ctx, files[i], opts, logger)
				if err != nil {
					return err
				}
				results[i] = res
				close(ready[i])
			}
			return nil
		})
	}

	g.Go(func() error {
		for i := range files {
			select {
			case <-ready[i]:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := fn(results[i]); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return origCtx.Err()
}

func parseFile(ctx context.Context, path string, opts Options, logger *slog.Logger) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	fileLogger := logger.With(slog.String("file", path))
	prof, err := parser.ParseSource(path, string(src),
		parser.WithLogger(fileLogger),
		parser.WithMemoization(opts.Memoize),
		parser.WithMaxErrors(opts.MaxErrors))

	fileLogger.Debug("parsed",
		slog.Int("fragments", prof.Total()),
		slog.Bool("failed", err != nil))
	return Result{Path: path, Profile: prof, Err: err}, nil
}
