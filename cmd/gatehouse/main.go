// Package main provides the gatehouse binary entry point.
// Gatehouse analyzes Python source files against configured rule schemas
// before they run: it resolves the governing schema for each file,
// evaluates every active check against a structural model of the source,
// and blocks, warns, or stays silent per the enforcement mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/checks"
	"github.com/donphi/gatehouse/engine"
	"github.com/donphi/gatehouse/format"
	"github.com/donphi/gatehouse/gate"
	"github.com/donphi/gatehouse/loader"
	"github.com/donphi/gatehouse/plugins/importorder"
	"github.com/donphi/gatehouse/repository"
	"github.com/donphi/gatehouse/schema"
)

const (
	Version = "0.1.0"
	appName = "gatehouse"
)

// Exit codes: 0 accepted, 1 blocked, 2 configuration or execution error.
const (
	exitOK      = 0
	exitBlocked = 1
	exitError   = 2
)

func main() {
	cmd := rootCmd()
	if err := cmd.Execute(); err != nil {
		var exit *exitCodeError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

// exitCodeError carries a process exit code through cobra without printing
// a second error message.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Structural rule gate for Python source files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(scanCmd())
	cmd.AddCommand(rulesCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

func scanCmd() *cobra.Command {
	var (
		file       string
		stdin      bool
		filename   string
		schemaName string
		outFormat  string
		noScope    bool
		modeFlag   string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a Python source file against its governing schema",
		Long: `Scan resolves the rule schema governing a source file, evaluates every
active check against a structural model of the source, and reports the
verdict. Exit code 0 means accepted, 1 blocked, 2 error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := readUnit(file, stdin, filename, args)
			if err != nil {
				return err
			}
			f, err := format.ParseFormat(outFormat)
			if err != nil {
				return err
			}
			return runScan(cmd.OutOrStdout(), unit, schemaName, f, noScope, modeFlag)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path of the source file to scan")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read source text from standard input")
	cmd.Flags().StringVar(&filename, "filename", "", "Path to attribute to stdin input")
	cmd.Flags().StringVar(&schemaName, "schema", "", "Override the schema selected by project configuration")
	cmd.Flags().StringVarP(&outFormat, "format", "o", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&noScope, "no-scope", false, "Skip gated/exempt path scoping")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Enforcement mode (hard, soft, off); defaults to $GATEHOUSE_MODE")
	return cmd
}

func readUnit(file string, stdin bool, filename string, args []string) (engine.SourceUnit, error) {
	if stdin {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return engine.SourceUnit{}, fmt.Errorf("read stdin: %w", err)
		}
		path := filename
		if path == "" {
			path = "<stdin>"
		}
		return engine.SourceUnit{Path: path, Content: content}, nil
	}

	if file == "" && len(args) == 1 {
		file = args[0]
	}
	if file == "" {
		return engine.SourceUnit{}, fmt.Errorf("either --file or --stdin is required")
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return engine.SourceUnit{}, fmt.Errorf("read %s: %w", file, err)
	}
	return engine.SourceUnit{Path: file, Content: content}, nil
}

func runScan(w io.Writer, unit engine.SourceUnit, schemaName string, f format.Format, noScope bool, modeFlag string) error {
	ctx := context.Background()

	stack, err := buildCoordinator(ctx, unit.Path, schemaName, modeFlag)
	if err != nil {
		return err
	}

	var (
		result   *engine.ScanResult
		decision engine.Decision
	)
	if noScope {
		result, err = stack.engine.ScanWith(unit, stack.coordinator.Mode(), engine.ScanOptions{SkipPerimeter: true})
		if err == nil {
			decision = engine.Decide(stack.coordinator.Mode(), result)
		}
	} else {
		result, decision, err = stack.coordinator.CheckOuter(unit)
	}
	if err != nil {
		return fmt.Errorf("scan %s: %w", unit.Path, err)
	}

	var model *analyzer.SourceAnalyzer
	if f == format.FormatText && !result.FromCache {
		// Best effort; rendering degrades gracefully without source lines.
		model, _ = analyzer.New(unit.Content, unit.Path)
	}
	if err := format.Render(w, f, unit.Path, result, model); err != nil {
		return err
	}

	if decision.Halt {
		return &exitCodeError{code: exitBlocked}
	}
	return nil
}

type setup struct {
	engine      *engine.Engine
	coordinator *gate.Coordinator
}

// buildCoordinator assembles the full scan stack for one invocation:
// project detection, record loading, eager validation, registry, engine,
// and the layer coordinator with an environment-backed marker store.
func buildCoordinator(ctx context.Context, path, schemaName, modeFlag string) (*setup, error) {
	logger := slog.Default()

	detector := repository.New()
	project, err := detector.DetectProject(path)
	if err != nil {
		return nil, fmt.Errorf("detect project: %w", err)
	}

	ld := loader.New(logger)
	store, err := ld.LoadHome(ctx, project.GateHome)
	if err != nil {
		return nil, fmt.Errorf("load gate home %s: %w", project.GateHome, err)
	}
	if project.ConfigPath != "" {
		cfg, err := ld.LoadProject(ctx, project.ConfigPath)
		if err != nil {
			return nil, err
		}
		store.Project = cfg
	}
	if schemaName != "" {
		if store.Project == nil {
			store.Project = &schema.ProjectConfig{}
		}
		store.Project.Schema = schemaName
	}
	if store.Project == nil {
		return nil, fmt.Errorf("no project configuration found for %s (missing %s)",
			path, loader.ProjectConfigFile)
	}

	registry := checks.NewRegistry()
	if err := importorder.Register(registry); err != nil {
		return nil, err
	}
	if err := loader.Validate(store, registry); err != nil {
		return nil, err
	}

	resolver := schema.NewResolver(store.Schemas, store.Rules, store.Project)
	eng := engine.New(resolver, registry, logger)

	mode := engine.ParseMode(modeFlag)
	if modeFlag == "" {
		mode = engine.ParseMode(os.Getenv(gate.EnvMode))
	}
	coordinator := gate.NewCoordinator(eng, mode, gate.EnvMarkerStore{}, logger)
	return &setup{engine: eng, coordinator: coordinator}, nil
}

func rulesCmd() *cobra.Command {
	var home string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule records available in a gate home",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if home == "" {
				project, err := repository.New().DetectProject(".")
				if err != nil {
					return err
				}
				home = project.GateHome
			}
			store, err := loader.New(slog.Default()).LoadHome(ctx, home)
			if err != nil {
				return fmt.Errorf("load gate home %s: %w", home, err)
			}
			return printRules(cmd.OutOrStdout(), store)
		},
	}
	cmd.Flags().StringVar(&home, "home", "", "Gate home directory (default: detected from the working directory)")
	return cmd
}

func printRules(w io.Writer, store *loader.Store) error {
	ids := make([]string, 0, len(store.Rules))
	for id := range store.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rule := store.Rules[id]
		name := rule.Name
		if name == "" {
			name = strings.ReplaceAll(filepath.Base(id), "_", " ")
		}
		if _, err := fmt.Fprintf(w, "%-32s %-12s %s\n", id, rule.Check.Type, name); err != nil {
			return err
		}
	}
	return nil
}
