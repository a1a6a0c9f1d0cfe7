// Package main provides the CLI entrypoint for cardbook.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/cardbook/internal/catalog"
	"github.com/verte-zerg/cardbook/internal/collection"
	"github.com/verte-zerg/cardbook/internal/config"
	"github.com/verte-zerg/cardbook/internal/model"
	"github.com/verte-zerg/cardbook/internal/store"
	"github.com/verte-zerg/cardbook/internal/tui"
)

var (
	configPath  string
	catalogName string
	driverName  string
	expansion   string
	startNumber int
	endNumber   int
	verbose     bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cardbook",
		Short:         "Track a trading card collection",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runBrowseCmd,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&catalogName, "catalog", "", "catalog name or expansion from the config file")
	flags.StringVar(&driverName, "driver", "", "storage driver (sqlite, file, postgres, s3, memory)")
	flags.StringVar(&expansion, "expansion", "", "ad-hoc catalog expansion (use with --start/--end)")
	flags.IntVar(&startNumber, "start", 0, "ad-hoc catalog first card number")
	flags.IntVar(&endNumber, "end", 0, "ad-hoc catalog last card number")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCatalogsCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newSectionsCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newCopyCmd())
	rootCmd.AddCommand(newRecordCmd("toggle", "Flip ownership of cards", (*collection.Engine).Toggle))
	rootCmd.AddCommand(newRecordCmd("inc", "Add a repeat to owned cards", (*collection.Engine).Increment))
	rootCmd.AddCommand(newRecordCmd("dec", "Remove a repeat from owned cards", (*collection.Engine).Decrement))
	rootCmd.AddCommand(newMarkCmd(true))
	rootCmd.AddCommand(newMarkCmd(false))
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

func setupLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// session is an opened catalog with its collection engine.
type session struct {
	engine  *collection.Engine
	backend store.Backend
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		logErrf("failed to close storage: %v\n", err)
	}
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	settings := config.Resolve(fileCfg, envCfg)
	if cmd.Flags().Changed("driver") {
		settings.Storage.Driver = store.Driver(driverName)
	}

	catCfg, err := resolveCatalog(cmd, fileCfg, settings.ImageBaseURL)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Build(catCfg)
	if err != nil {
		return nil, err
	}

	backend, err := store.Open(ctx, settings.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", settings.Storage.Driver, err)
	}
	engine, err := collection.New(ctx, cat, backend,
		collection.WithNamespace(settings.Namespace),
		collection.WithLogger(slog.Default()),
	)
	if err != nil {
		if cerr := backend.Close(); cerr != nil {
			logErrf("failed to close storage: %v\n", cerr)
		}
		return nil, err
	}
	return &session{engine: engine, backend: backend}, nil
}

// resolveCatalog prefers an ad-hoc --expansion catalog over the config file.
func resolveCatalog(cmd *cobra.Command, fileCfg config.FileConfig, imageBaseURL string) (model.CatalogConfig, error) {
	flags := cmd.Flags()
	if flags.Changed("expansion") || flags.Changed("start") || flags.Changed("end") {
		cfg := model.CatalogConfig{Expansion: expansion, ImageBaseURL: imageBaseURL}
		if flags.Changed("start") {
			cfg.Start = &startNumber
		}
		if flags.Changed("end") {
			cfg.End = &endNumber
		}
		return cfg, nil
	}
	if len(fileCfg.Catalogs) == 0 {
		lines := []string{
			"no catalog configured",
			fmt.Sprintf("add a [[catalog]] to %s (run: cardbook config)", configPath),
			"or pass --expansion, --start and --end",
		}
		return model.CatalogConfig{}, fmt.Errorf("%s", strings.Join(lines, "\n"))
	}
	applyStringConfig(cmd, "catalog", &catalogName, fileCfg.DefaultCatalog)
	entry, err := fileCfg.FindCatalog(catalogName)
	if err != nil {
		return model.CatalogConfig{}, err
	}
	return entry.Model(imageBaseURL), nil
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	program := tea.NewProgram(tui.NewModel(ctx, s.engine), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cardbook configuration
# Uncomment a value to enable it. CLI flags and CARDBOOK_* variables override config values.

# namespace = %q          # Storage key prefix
# default-catalog = "base"       # Catalog used when --catalog is not given

[images]
# base-url = %q

[storage]
# driver = "sqlite"              # sqlite, file, postgres, s3 or memory
# path = %q
# dir = %q
# dsn = "postgres://localhost:5432/cardbook?sslmode=disable"

[storage.s3]
# bucket = "my-cards"
# region = "us-east-1"
# endpoint = "http://localhost:9000"
# prefix = "collections/"
# path-style = true

[[catalog]]
name = "base"
expansion = "base"
start = 1
end = 250

# [[catalog]]
# name = "gt"
# expansion = "gt"
# ranges = [{ from = 1, to = 401 }, { from = 402, to = 407 }]
# specials = { from = 1, to = 10, prefix = "F" }
#
# [[catalog.sections]]
# name = "hidden cards"
# from = 402
# to = 407
#
# [[catalog.sections]]
# name = "special cards"
# prefix = "F"
`,
		collection.DefaultNamespace,
		catalog.DefaultImageBaseURL,
		config.DefaultDBPath(),
		config.DefaultDataDir(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
