package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/raymyers/ralph-ecc/pkg/collect"
	"github.com/raymyers/ralph-ecc/pkg/config"
	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
	"github.com/raymyers/ralph-ecc/pkg/parser"
	"github.com/raymyers/ralph-ecc/pkg/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "0.1.0"

// Debug flags for dumping intermediate results
var (
	dFragments bool
	dTokens    bool
)

// Collection options
var (
	configPath   string
	dbPath       string
	outputFormat string
	colorMode    string
	workers      int
	includeGlobs []string
	excludeGlobs []string
	noMemo       bool
	maxErrors    int
	verbose      bool
)

// ErrParseFailed indicates at least one file had syntax errors
var ErrParseFailed = errors.New("parse failed")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Accept single-dash debug flags like -dfragments
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that also accept a single dash
var debugFlagNames = []string{"dfragments", "dtokens"}

// normalizeFlags converts single-dash debug flags like -dfragments to --dfragments
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ecc-parse [file-or-dir]...",
		Short: "ecc-parse extracts code fragments from EFI C sources",
		Long: `ecc-parse parses EDK2 style C sources without preprocessing them and
reports the code fragments found: function definitions, declarations,
typedefs, struct/union and enum definitions, predicates and call sites.
Fragments can be dumped or stored in a SQLite database for later checks.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}

			cfg, err := loadConfig(cmd, errOut)
			if err != nil {
				return err
			}
			if outputFormat != "text" && outputFormat != "yaml" {
				err := fmt.Errorf("unknown format %q (want text or yaml)", outputFormat)
				fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
				return err
			}

			files, err := expandArgs(args, cfg)
			if err != nil {
				fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
				return err
			}

			if dTokens {
				return doTokens(files, out, errOut)
			}
			return doCollect(cmd.Context(), files, cfg, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVarP(&dFragments, "dfragments", "", false, "Dump fragments after parsing")
	rootCmd.Flags().BoolVarP(&dTokens, "dtokens", "", false, "Dump tokens and stop")

	rootCmd.Flags().StringVar(&configPath, "config", "", "Read settings from a YAML file")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Store fragments in a SQLite database")
	rootCmd.Flags().StringVar(&outputFormat, "format", "text", "Fragment dump format: text or yaml")
	rootCmd.Flags().StringVar(&colorMode, "color", "auto", "Color diagnostics: auto, always or never")
	rootCmd.Flags().IntVarP(&workers, "workers", "j", 0, "Files parsed in parallel (0 = one per CPU)")
	rootCmd.Flags().StringArrayVar(&includeGlobs, "include", nil, "Glob selecting files in directories")
	rootCmd.Flags().StringArrayVar(&excludeGlobs, "exclude", nil, "Glob removing files from directories")
	rootCmd.Flags().BoolVar(&noMemo, "no-memo", false, "Disable memoization of speculative parses")
	rootCmd.Flags().IntVar(&maxErrors, "max-errors", 0, "Errors reported per file (0 = unlimited)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log parser progress to stderr")

	return rootCmd
}

// loadConfig reads --config, if given, and applies the flags set on the
// command line on top of it
func loadConfig(cmd *cobra.Command, errOut io.Writer) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("include") {
		cfg.Include = includeGlobs
	}
	if flags.Changed("exclude") {
		cfg.Exclude = excludeGlobs
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("db") {
		cfg.Database = dbPath
	}
	if flags.Changed("max-errors") {
		cfg.MaxErrors = maxErrors
	}
	if noMemo {
		cfg.Memoize = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
		return config.Config{}, err
	}
	return cfg, nil
}

// expandArgs replaces directory arguments with the sources selected below them
func expandArgs(args []string, cfg config.Config) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := collect.Discover(arg, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

func newLogger(errOut io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}

// doTokens prints the token stream of each file (-dtokens flag)
func doTokens(files []string, out, errOut io.Writer) error {
	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(errOut, "ecc-parse: error reading %s: %v\n", filename, err)
			return err
		}
		fmt.Fprintf(out, "# %s\n", filename)
		for _, tok := range lexer.NewStream(string(content)).Tokens() {
			if tok.Type == lexer.TokenEOF {
				break
			}
			fmt.Fprintf(out, "%d:%d %s %q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
		}
	}
	return nil
}

// doCollect parses files, reporting diagnostics and dumping or storing the
// collected fragments
func doCollect(ctx context.Context, files []string, cfg config.Config, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(errOut)
	diag := newDiagnostics(errOut, colorEnabled(errOut))

	var db *store.Store
	if cfg.Database != "" {
		var err error
		db, err = store.Open(cfg.Database)
		if err != nil {
			fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
			return err
		}
		defer db.Close()
	}

	printer := fragment.NewPrinter(out)
	var profiles []*fragment.Profile
	failed := 0

	err := collect.Run(ctx, files, collect.OptionsFrom(cfg, logger), func(res collect.Result) error {
		if res.Failed() {
			failed++
			diag.report(res)
		}
		if db != nil {
			if _, err := db.AddProfile(res.Profile, len(res.Errors())); err != nil {
				return fmt.Errorf("storing %s: %w", res.Path, err)
			}
		}
		if dFragments {
			if outputFormat == "yaml" {
				profiles = append(profiles, res.Profile)
			} else {
				printer.PrintProfile(res.Profile)
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
		return err
	}

	if len(profiles) > 0 {
		if err := printer.PrintYAML(profiles...); err != nil {
			fmt.Fprintf(errOut, "ecc-parse: %v\n", err)
			return err
		}
	}

	if failed > 0 {
		fmt.Fprintf(errOut, "ecc-parse: %d of %d file(s) had errors\n", failed, len(files))
		return fmt.Errorf("%w: %d file(s)", ErrParseFailed, failed)
	}
	return nil
}

// colorEnabled decides whether diagnostics written to w are colored
func colorEnabled(w io.Writer) bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// diagnostics formats parse errors as file:line:col: rule: message
type diagnostics struct {
	w        io.Writer
	location *color.Color
	severity *color.Color
	rule     *color.Color
}

func newDiagnostics(w io.Writer, enabled bool) *diagnostics {
	d := &diagnostics{
		w:        w,
		location: color.New(color.Bold),
		severity: color.New(color.Bold, color.FgRed),
		rule:     color.New(color.FgHiBlue),
	}
	if enabled {
		d.location.EnableColor()
		d.severity.EnableColor()
		d.rule.EnableColor()
	} else {
		d.location.DisableColor()
		d.severity.DisableColor()
		d.rule.DisableColor()
	}
	return d
}

func (d *diagnostics) report(res collect.Result) {
	errs := res.Errors()
	if len(errs) == 0 {
		fmt.Fprintf(d.w, "%s %s %v\n", d.location.Sprintf("%s:", res.Path), d.severity.Sprint("error:"), res.Err)
		return
	}
	for _, e := range errs {
		found := "end of input"
		if e.Found.Type != lexer.TokenEOF {
			found = fmt.Sprintf("%q", e.Found.Literal)
		}
		fmt.Fprintf(d.w, "%s %s %s expected %s, found %s\n",
			d.location.Sprintf("%s:%d:%d:", res.Path, e.Pos.Line, e.Pos.Column),
			d.severity.Sprint("error:"),
			d.rule.Sprintf("%s:", e.Rule),
			e.Expected, found)
	}
	var synErr *parser.SyntaxError
	if errors.As(res.Err, &synErr) && synErr.Truncated {
		fmt.Fprintf(d.w, "%s %s\n", d.location.Sprintf("%s:", res.Path), "parsing stopped at end of input")
	}
}
