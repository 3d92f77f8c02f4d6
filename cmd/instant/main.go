// Command instant generates a typed Go client for an InstantDB application.
//
// The generate command fetches the app schema from the admin API (or reads a
// local snapshot), derives the relation graph and emits one typed service
// per entity:
//
//	INSTANT_APP_ID=... INSTANT_ADMIN_TOKEN=... instant generate --out ./blogdb
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/instant/compiler/gen"
	"github.com/syssam/instant/compiler/load"
	"github.com/syssam/instant/schema"
)

var (
	outFlag        string
	packageFlag    string
	schemaFileFlag string
	configFlag     string
	cacheDirFlag   string
	offlineFlag    bool
	watchFlag      bool
	workersFlag    int
)

var rootCmd = &cobra.Command{
	Use:   "instant",
	Short: "Typed client generator for InstantDB apps",
	Long: `instant generates a typed Go client from an InstantDB app schema.
Credentials are read from the INSTANT_APP_ID and INSTANT_ADMIN_TOKEN
environment variables; INSTANT_BASE_URL overrides the API endpoint.`,
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the typed client package",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&outFlag, "out", "./instantdb", "output directory of the generated package")
	generateCmd.Flags().StringVar(&packageFlag, "package", "", "package name of the generated files (default: out directory base name)")
	generateCmd.Flags().StringVar(&schemaFileFlag, "schema-file", "", "generate from a local schema JSON file instead of the API")
	generateCmd.Flags().StringVar(&configFlag, "config", "", "generator config file (default: instant.gen.yaml when present)")
	generateCmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "schema snapshot cache directory")
	generateCmd.Flags().BoolVar(&offlineFlag, "offline", false, "generate from the snapshot cache without contacting the API")
	generateCmd.Flags().BoolVar(&watchFlag, "watch", false, "with --schema-file, regenerate whenever the file changes")
	generateCmd.Flags().IntVar(&workersFlag, "workers", 0, "parallel generator workers (default: GOMAXPROCS)")

	rootCmd.AddCommand(generateCmd)

	viper.SetEnvPrefix("instant")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := genConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := generateOnce(ctx, logger, cfg); err != nil {
		return err
	}
	if !watchFlag {
		return nil
	}
	if schemaFileFlag == "" {
		return fmt.Errorf("--watch requires --schema-file")
	}
	return watchSchema(ctx, logger, cfg)
}

// genConfig loads the optional instant.gen.yaml. The explicit --config flag
// must exist; the default path is picked up only when present.
func genConfig() (*gen.Config, error) {
	path := configFlag
	if path == "" {
		path = "instant.gen.yaml"
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}
	return gen.LoadConfig(path)
}

func loadSchema(ctx context.Context, logger *slog.Logger) (*schema.Schema, error) {
	if schemaFileFlag != "" {
		return load.FromFile(schemaFileFlag)
	}

	cfg := load.Config{
		AppID:      viper.GetString("app_id"),
		AdminToken: viper.GetString("admin_token"),
		BaseURL:    viper.GetString("base_url"),
		CacheDir:   cacheDirFlag,
		Logger:     logger,
	}
	if cfg.AppID == "" {
		return nil, fmt.Errorf("INSTANT_APP_ID is required (or pass --schema-file)")
	}
	if offlineFlag {
		if cfg.CacheDir == "" {
			return nil, fmt.Errorf("--offline requires --cache-dir")
		}
		return load.FromCache(cfg)
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("INSTANT_ADMIN_TOKEN is required (or pass --schema-file)")
	}
	return load.Fetch(ctx, cfg)
}

func generateOnce(ctx context.Context, logger *slog.Logger, cfg *gen.Config) error {
	s, err := loadSchema(ctx, logger)
	if err != nil {
		return err
	}

	out := outFlag
	if cfg != nil && cfg.Out != "" {
		out = cfg.Out
	}
	g := gen.NewGenerator(schema.NewGraph(s), out).
		WithPackage(packageFlag).
		WithWorkers(workersFlag).
		WithConfig(cfg)
	if err := g.Generate(ctx); err != nil {
		return err
	}
	logger.Info("client generated", "out", out, "entities", len(s.Entities))
	return nil
}

// watchSchema regenerates on every write to the schema file until the
// context is cancelled or an interrupt arrives. Editors replace files on
// save, so the watch is on the directory and filtered by name.
func watchSchema(ctx context.Context, logger *slog.Logger, cfg *gen.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(schemaFileFlag)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching schema file", "path", target)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Info("schema changed, regenerating", "event", ev.Op.String())
			if err := generateOnce(ctx, logger, cfg); err != nil {
				logger.Error("regeneration failed", "err", err)
			}
		}
	}
}
